package user

import "fmt"

// Role is the closed set of account roles. Anything outside the three
// constants below is rejected at the boundary; no free-form strings are
// ever stored or trusted after storage.
type Role string

const (
	RoleStudent       Role = "student"
	RoleProfessional  Role = "professional"
	RoleAdministrator Role = "administrator"
)

// ParseRole validates a raw role value. The empty string defaults to
// student, matching the registration contract.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case "":
		return RoleStudent, nil
	case RoleStudent, RoleProfessional, RoleAdministrator:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleProfessional, RoleAdministrator:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
