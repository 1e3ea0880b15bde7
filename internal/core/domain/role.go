package domain

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// RoleCatalog is the fixed set of role names seeded at startup.
var RoleCatalog = []string{RoleUser, RoleModerator, RoleAdmin}

// DefaultRole is assigned when signup does not request any role.
const DefaultRole = RoleUser

// Role is a named permission tier.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsKnownRole reports whether name belongs to the role catalog.
func IsKnownRole(name string) bool {
	for _, r := range RoleCatalog {
		if r == name {
			return true
		}
	}
	return false
}
