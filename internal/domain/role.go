package domain

// Role names carried in the JWT "role" claim.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleUser    = "User"
)

// Roles lists every role the API understands, most privileged first.
var Roles = []string{RoleAdmin, RoleManager, RoleUser}
