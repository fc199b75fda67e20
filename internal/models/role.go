package models

// Role is the closed set of caller roles. Every protected operation names the
// role it requires; there are no ad-hoc role string checks outside the guard.
type Role string

const (
	RoleClient     Role = "client"
	RoleTechnician Role = "technician"
)

// ParseRole validates a role literal.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleTechnician:
		return Role(s), true
	}
	return "", false
}
