package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/notaris/backend/internal/application/identity"
	"github.com/notaris/backend/internal/interfaces/http/dto"
)

// CreateUserRequest adds a member to the office.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	Email       string `json:"email" binding:"omitempty,email"`
	DisplayName string `json:"display_name" binding:"max=200"`
	Role        string `json:"role" binding:"required,role"`
}

// UpdateUserRequest changes profile fields; omitted fields are kept.
type UpdateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,max=254"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=200"`
}

// ChangeRoleRequest assigns a role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// UserListQuery filters the member list.
type UserListQuery struct {
	dto.ListRequest
	Role   string `form:"role"`
	Status string `form:"status"`
}

// UserHandler manages the members of an office.
type UserHandler struct {
	BaseHandler
	users *appidentity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *appidentity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary      List office members
// @Tags         users
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, size := q.PageOrDefault()
	result, err := h.users.List(c.Request.Context(), id.TenantID, appidentity.UserListFilter{
		Search:   q.Search,
		Role:     q.Role,
		Status:   q.Status,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Create godoc
// @Summary      Create a member
// @Tags         users
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.users.Create(c.Request.Context(), id.TenantID, appidentity.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get godoc
// @Summary      Get a member
// @Tags         users
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id.TenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Update godoc
// @Summary      Update a member's profile
// @Tags         users
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), id.TenantID, userID, appidentity.UpdateUserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangeRole godoc
// @Summary      Change a member's role
// @Tags         users
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), id.TenantID, id.UserID, userID, req.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Activate godoc
// @Summary      Activate a member
// @Tags         users
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Activate(c.Request.Context(), id.TenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Deactivate godoc
// @Summary      Deactivate a member and end their sessions
// @Tags         users
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Deactivate(c.Request.Context(), id.TenantID, id.UserID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete godoc
// @Summary      Remove a member
// @Tags         users
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id.TenantID, id.UserID, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
