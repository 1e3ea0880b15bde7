package domain

import "time"

// User models an account known to the directory. Roles are references into
// the fixed role catalog.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames returns the names of the roles held by the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(names ...string) bool {
	for _, r := range u.Roles {
		for _, n := range names {
			if r.Name == n {
				return true
			}
		}
	}
	return false
}
