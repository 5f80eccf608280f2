package catalog

// UserRole is the role carried in a user's token.
type UserRole string

const (
	RoleCitizen        UserRole = "citizen"
	RoleLawEnforcement UserRole = "law_enforcement"
	RoleAdmin          UserRole = "admin"
)

// Permission is a named capability granted to a role.
type Permission string

const (
	PermCreateCase               Permission = "create_case"
	PermViewOwnCases             Permission = "view_own_cases"
	PermUpdateProfile            Permission = "update_profile"
	PermUploadEvidence           Permission = "upload_evidence"
	PermViewAllCases             Permission = "view_all_cases"
	PermUpdateCaseStatus         Permission = "update_case_status"
	PermAssignCases              Permission = "assign_cases"
	PermViewEvidence             Permission = "view_evidence"
	PermCommunicateWithReporter  Permission = "communicate_with_reporter"
	PermCreateInvestigationNotes Permission = "create_investigation_notes"
	PermViewAnalytics            Permission = "view_analytics"
	PermManageUsers              Permission = "manage_users"
	PermSystemConfiguration      Permission = "system_configuration"
	PermViewAuditLogs            Permission = "view_audit_logs"
	PermManageEvidence           Permission = "manage_evidence"
	PermSystemReports            Permission = "system_reports"
)

// PermissionSet is an immutable-by-convention set of permissions.
type PermissionSet map[Permission]struct{}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAny reports whether at least one of perms is in the set.
func (s PermissionSet) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

type roleInfo struct {
	label       string
	permissions []Permission
}

// Admins also carry update_case_status and assign_cases: status governance is
// restricted to law enforcement and administrators.
var roles = map[UserRole]roleInfo{
	RoleCitizen: {
		label: "Citizen",
		permissions: []Permission{
			PermCreateCase, PermViewOwnCases, PermUpdateProfile, PermUploadEvidence,
		},
	},
	RoleLawEnforcement: {
		label: "Law Enforcement",
		permissions: []Permission{
			PermViewAllCases,
			PermUpdateCaseStatus,
			PermAssignCases,
			PermViewEvidence,
			PermCommunicateWithReporter,
			PermCreateInvestigationNotes,
			PermViewAnalytics,
		},
	},
	RoleAdmin: {
		label: "Administrator",
		permissions: []Permission{
			PermManageUsers,
			PermViewAllCases,
			PermUpdateCaseStatus,
			PermAssignCases,
			PermSystemConfiguration,
			PermViewAuditLogs,
			PermManageEvidence,
			PermViewAnalytics,
			PermSystemReports,
		},
	},
}

func (r UserRole) Valid() bool {
	_, ok := roles[r]
	return ok
}

func (r UserRole) Label() string { return roles[r].label }

// Permissions returns a fresh permission set for the role. Unknown roles get
// an empty set.
func (r UserRole) Permissions() PermissionSet {
	info := roles[r]
	set := make(PermissionSet, len(info.permissions))
	for _, p := range info.permissions {
		set[p] = struct{}{}
	}
	return set
}
