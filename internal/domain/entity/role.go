package entity

// Role names a staff role. Roles are a closed set; there is no roles table.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleFacilityAdmin   Role = "facility_admin"
	RoleFacilityFinance Role = "facility_finance"
	RoleFacilityUser    Role = "facility_user"
	RoleVendorAdmin     Role = "vendor_admin"
	RoleSupervisor      Role = "supervisor"
)

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

type Permission string

const (
	PermBookingCreate           Permission = "booking:create"
	PermBookingView             Permission = "booking:view"
	PermBookingConsent          Permission = "booking:consent"
	PermBookingOverrideRequest  Permission = "booking:override:request"
	PermBookingOverrideValidate Permission = "booking:override:validate"
	PermBookingFinanceApprove   Permission = "booking:finance_approve"
	PermBookingApprove          Permission = "booking:approve"
	PermCatalogManage           Permission = "catalog:manage"
	PermPatientManage           Permission = "patient:manage"
	PermAuditView               Permission = "audit:view"
	PermUserManage              Permission = "user:manage"
)

var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermBookingCreate, PermBookingView, PermBookingConsent,
		PermBookingOverrideRequest, PermBookingOverrideValidate,
		PermBookingFinanceApprove, PermBookingApprove,
		PermCatalogManage, PermPatientManage, PermAuditView, PermUserManage,
	},
	RoleFacilityAdmin: {
		PermBookingCreate, PermBookingView, PermBookingConsent,
		PermBookingOverrideRequest, PermPatientManage, PermAuditView,
	},
	RoleFacilityFinance: {
		PermBookingView, PermBookingFinanceApprove,
	},
	RoleFacilityUser: {
		PermBookingCreate, PermBookingView, PermBookingConsent,
		PermBookingOverrideRequest, PermPatientManage,
	},
	RoleVendorAdmin: {
		PermBookingView, PermBookingApprove, PermCatalogManage,
	},
	RoleSupervisor: {
		PermBookingView, PermBookingOverrideValidate,
	},
}

// PermissionsFor returns a copy of the role's permission list.
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

func HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is true for an empty list.
func HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}
