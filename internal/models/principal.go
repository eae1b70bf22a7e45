package models

// Role is the role tag derived for a principal
type Role string

const (
	RoleMentee Role = "mentee"
	RoleMentor Role = "mentor"
	RoleBoth   Role = "both"
)

// IsValid reports whether r is a known profile role
func (r Role) IsValid() bool {
	return r == RoleMentee || r == RoleMentor || r == RoleBoth
}

// Includes reports whether a principal holding r may act as side
func (r Role) Includes(side Role) bool {
	return r == side || r == RoleBoth
}

// ParseSide parses the mentor|mentee selector used by list operations.
// "both" is not a side.
func ParseSide(s string) (Role, bool) {
	switch Role(s) {
	case RoleMentor:
		return RoleMentor, true
	case RoleMentee:
		return RoleMentee, true
	default:
		return "", false
	}
}

// Principal is the authenticated caller. It is passed explicitly to every
// accessor call; nothing reads it from ambient state.
type Principal struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// IsZero reports whether no principal is present
func (p Principal) IsZero() bool {
	return p.ID == ""
}

// CanActAs reports whether the principal may act on the given side of a relationship
func (p Principal) CanActAs(side Role) bool {
	return p.Role.Includes(side)
}
