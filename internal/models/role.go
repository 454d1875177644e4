package models

// Role is the closed set of actor roles. Policy code switches over this type
// exhaustively; adding a variant requires touching every switch (enforced by
// TestAllRolesCovered in internal/policy).
type Role string

const (
	RoleReader      Role = "reader"
	RoleReviewer    Role = "reviewer"
	RoleDeptAdmin   Role = "dept_admin"
	RoleGlobalAdmin Role = "global_admin"
)

// AllRoles enumerates every defined role, in no particular order.
var AllRoles = []Role{RoleReader, RoleReviewer, RoleDeptAdmin, RoleGlobalAdmin}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleReviewer, RoleDeptAdmin, RoleGlobalAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries administrative authority.
func (r Role) IsAdmin() bool {
	return r == RoleDeptAdmin || r == RoleGlobalAdmin
}

// ActorContext is the authenticated identity attached to every request after
// session validation. DepartmentID is set only for department admins.
type ActorContext struct {
	ActorID      string `json:"actor_id"`
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}
