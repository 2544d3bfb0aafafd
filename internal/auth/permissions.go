package auth

// Capability strings consumed by Authorize. Every mutating or listing
// operation declares the capability it requires.
const (
	CapUserCreate = "user:create"
	CapUserUpdate = "user:update"
	CapUserDelete = "user:delete"
	CapUserView   = "user:view"

	CapGroupCreate = "group:create"
	CapGroupUpdate = "group:update"
	CapGroupDelete = "group:delete"
	CapGroupView   = "group:view"

	CapPaymentCreate = "payment:create"
)

// rolePermissions is a total allow-set per role. No role inherits from
// another; each set is spelled out in full so a privilege never appears
// through hierarchy.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		CapUserCreate,
		CapUserUpdate,
		CapUserDelete,
		CapUserView,
		CapGroupCreate,
		CapGroupUpdate,
		CapGroupDelete,
		CapGroupView,
		CapPaymentCreate,
	},
	RoleManager: {
		CapUserView,
		CapGroupCreate,
		CapGroupUpdate,
		CapGroupView,
		CapPaymentCreate,
	},
	RoleViewer: {
		CapUserView,
		CapGroupView,
	},
}

// Authorize reports whether the role may perform the capability. Unknown
// roles map to the empty set, so the check fails closed.
func Authorize(role, capability string) bool {
	for _, p := range rolePermissions[role] {
		if p == capability {
			return true
		}
	}
	return false
}

// ValidRole reports whether the role belongs to the closed enum.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// Capabilities returns a copy of the role's allow-set.
func Capabilities(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
