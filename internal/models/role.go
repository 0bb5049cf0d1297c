package models

// Role identifies what kind of user is acting.
type Role string

const (
	RoleAdmin                 Role = "ADMIN"
	RoleCorrespondenceOfficer Role = "CORRESPONDENCE_OFFICER"
	RoleDepartmentHead        Role = "DEPARTMENT_HEAD"
	RoleStaff                 Role = "STAFF"
)

// Capability is a single operation a role may perform. Authorization checks
// ask the capability set instead of comparing role names at each call site.
type Capability string

const (
	CapCreateDocument        Capability = "document:create"
	CapAssignDocument        Capability = "document:assign"
	CapTransitionAnyDocument Capability = "document:transition-any"
	CapBulkTransition        Capability = "document:bulk-transition"
	CapManageUsers           Capability = "user:manage"
	CapViewAuditLog          Capability = "audit:view"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapCreateDocument:        true,
		CapAssignDocument:        true,
		CapTransitionAnyDocument: true,
		CapBulkTransition:        true,
		CapManageUsers:           true,
		CapViewAuditLog:          true,
	},
	RoleCorrespondenceOfficer: {
		CapCreateDocument:        true,
		CapAssignDocument:        true,
		CapTransitionAnyDocument: true,
		CapBulkTransition:        true,
		CapViewAuditLog:          true,
	},
	RoleDepartmentHead: {
		CapCreateDocument: true,
	},
	RoleStaff: {},
}

// Can reports whether the role holds the given capability.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}
