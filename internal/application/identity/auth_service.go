package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	ErrOfficeUnknown      = shared.NewDomainError("OFFICE_NOT_FOUND", "Unknown office")
	ErrOfficeSuspended    = shared.NewDomainError("OFFICE_SUSPENDED", "Office is suspended")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked")
)

// AuthService handles sign-in and session lifecycle.
type AuthService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tenantRepo identity.TenantRepository,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer func() { telemetry.End(span, err) }()

	tenant, err := s.resolveOffice(ctx, input)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, tenant.ID, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user",
				zap.String("tenant_code", tenant.Code), zap.String("username", input.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CanLogin() {
		switch {
		case user.IsLocked():
			s.logger.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
			return nil, ErrAccountLocked
		case user.Status == identity.UserStatusDeactivated:
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		case user.Status == identity.UserStatusPending:
			return nil, shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(identity.MaxLoginAttempts, identity.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", user.FailedAttempts))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(subjectFor(tenant, user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the session is valid either way
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("user_id", user.ID.String()))

	dto := ToUserDTO(user)
	dto.Permissions = user.Role.Permissions()
	return &LoginResult{Tokens: tokensFrom(pair), User: dto}, nil
}

func (s *AuthService) resolveOffice(ctx context.Context, input LoginInput) (*identity.Tenant, error) {
	var (
		tenant *identity.Tenant
		err    error
	)
	switch {
	case input.OfficeCode != "":
		tenant, err = s.tenantRepo.FindByCode(ctx, input.OfficeCode)
	case input.Host != "":
		tenant, err = s.tenantRepo.FindByDomain(ctx, identity.NormalizeDomain(input.Host))
	default:
		return nil, ErrOfficeUnknown
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOfficeUnknown
		}
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, ErrOfficeSuspended
	}
	return tenant, nil
}

// Refresh rotates a refresh token. The previous refresh token is revoked
// and the role is re-read so role changes apply to the new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*SessionTokens, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid office in token")
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid user in token")
	}

	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, ErrOfficeSuspended
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	pair, err := s.jwtService.RefreshTokenPair(claims, subjectFor(tenant, user))
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Debug("Token refreshed", zap.String("user_id", userID.String()))
	tokens := tokensFrom(pair)
	return &tokens, nil
}

// Logout revokes the current access token and, when present, the refresh token.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		// already unusable
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL())
}

// Authenticate validates an access token and checks revocation.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, issuedAt)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// Me returns the signed-in user with the permissions of their role.
func (s *AuthService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	dto.Permissions = user.Role.Permissions()
	return &dto, nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.TenantID, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

func subjectFor(t *identity.Tenant, u *identity.User) auth.Subject {
	return auth.Subject{
		TenantID:    t.ID,
		TenantCode:  t.Code,
		UserID:      u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		Permissions: u.Role.Permissions(),
	}
}

func tokensFrom(p *auth.TokenPair) SessionTokens {
	return SessionTokens{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	}
	return shared.NewDomainError("INVALID_TOKEN", "Invalid token")
}
