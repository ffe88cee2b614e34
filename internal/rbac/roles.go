package rbac

// Role names. Keep these stable; they are part of auth contracts.
const (
	RoleUser    = "user"
	RoleChatter = "chatter"
	RoleAdmin   = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleUser, RoleChatter, RoleAdmin:
		return true
	default:
		return false
	}
}
