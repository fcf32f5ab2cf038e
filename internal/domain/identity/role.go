package identity

import (
	"sort"

	"github.com/notaris/backend/internal/domain/shared"
)

// Role is the single role a user holds inside an office.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleNotary    Role = "notary"
	RoleCandidate Role = "candidate"
	RoleClerk     Role = "clerk"
)

// AllRoles lists roles in descending order of privilege.
var AllRoles = []Role{RoleAdmin, RoleNotary, RoleCandidate, RoleClerk}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be one of admin, notary, candidate, clerk")
	}
	return r, nil
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleNotary, RoleCandidate, RoleClerk:
		return true
	}
	return false
}

// Permission codes follow the "resource:action" format.
const (
	PermOfficeRead   = "office:read"
	PermOfficeUpdate = "office:update"

	PermUserRead   = "user:read"
	PermUserManage = "user:manage"

	PermDossierRead   = "dossier:read"
	PermDossierWrite  = "dossier:write"
	PermDossierDelete = "dossier:delete"

	PermDocumentRead   = "document:read"
	PermDocumentWrite  = "document:write"
	PermDocumentDelete = "document:delete"

	PermAppointmentRead  = "appointment:read"
	PermAppointmentWrite = "appointment:write"

	PermMessageRead  = "message:read"
	PermMessageWrite = "message:write"

	PermInvoiceRead   = "invoice:read"
	PermInvoiceWrite  = "invoice:write"
	PermInvoiceIssue  = "invoice:issue"
	PermInvoiceDelete = "invoice:delete"

	PermRepertoriumRead  = "repertorium:read"
	PermRepertoriumWrite = "repertorium:write"
	PermRepertoriumVoid  = "repertorium:void"

	PermKlapperRead = "klapper:read"

	PermAssistantUse   = "assistant:use"
	PermAssistantUsage = "assistant:usage"
	PermAssistantIndex = "assistant:index"

	PermLicenseRead   = "license:read"
	PermLicenseManage = "license:manage"
)

var basePermissions = []string{
	PermOfficeRead,
	PermUserRead,
	PermDossierRead, PermDossierWrite,
	PermDocumentRead, PermDocumentWrite,
	PermAppointmentRead, PermAppointmentWrite,
	PermMessageRead, PermMessageWrite,
	PermRepertoriumRead,
	PermKlapperRead,
	PermAssistantUse,
	PermLicenseRead,
}

var rolePermissions = map[Role][]string{
	RoleAdmin: nil, // filled in init: everything
	RoleNotary: append(append([]string{}, basePermissions...),
		PermDossierDelete, PermDocumentDelete,
		PermInvoiceRead, PermInvoiceWrite, PermInvoiceIssue, PermInvoiceDelete,
		PermRepertoriumWrite, PermRepertoriumVoid,
		PermAssistantUsage, PermAssistantIndex,
		PermLicenseManage,
	),
	RoleCandidate: append(append([]string{}, basePermissions...),
		PermDocumentDelete,
		PermInvoiceRead, PermInvoiceWrite,
		PermRepertoriumWrite,
		PermAssistantIndex,
	),
	RoleClerk: append([]string{}, basePermissions...),
}

func init() {
	seen := make(map[string]struct{})
	var all []string
	for _, perms := range rolePermissions {
		for _, p := range perms {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}
	for _, p := range []string{PermOfficeUpdate, PermUserManage} {
		if _, ok := seen[p]; !ok {
			all = append(all, p)
		}
	}
	sort.Strings(all)
	rolePermissions[RoleAdmin] = all
}

// Permissions returns the permission codes granted to the role, sorted.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	sort.Strings(out)
	return out
}

// HasPermission reports whether the role grants code.
func (r Role) HasPermission(code string) bool {
	for _, p := range rolePermissions[r] {
		if p == code {
			return true
		}
	}
	return false
}
