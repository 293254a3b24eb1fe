package domain

// PrincipalKind tags the actor performing an operation.
type PrincipalKind int

const (
	PrincipalAnonymous PrincipalKind = iota
	PrincipalUser
	PrincipalOrganizer
	PrincipalAdmin
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalUser:
		return "user"
	case PrincipalOrganizer:
		return "organizer"
	case PrincipalAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Principal is passed explicitly through every service call; there is no ambient session.
type Principal struct {
	Kind        PrincipalKind
	UserID      string
	Email       string
	DisplayName string
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{Kind: PrincipalAnonymous}
}

// NewPrincipal builds a principal for an authenticated identity holding role.
// Unknown or empty roles collapse to a plain user.
func NewPrincipal(identity *Identity, role Role) Principal {
	p := Principal{
		Kind:        PrincipalUser,
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
	switch role {
	case RoleOrganizer:
		p.Kind = PrincipalOrganizer
	case RoleAdmin:
		p.Kind = PrincipalAdmin
	}
	return p
}

// IsAuthenticated reports whether the principal carries an identity.
func (p Principal) IsAuthenticated() bool {
	return p.Kind != PrincipalAnonymous && p.UserID != ""
}

// IsAdmin reports whether the principal is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Kind == PrincipalAdmin && p.UserID != ""
}

// IsOrganizer reports organizer privileges. Admin implies organizer.
func (p Principal) IsOrganizer() bool {
	return (p.Kind == PrincipalOrganizer || p.Kind == PrincipalAdmin) && p.UserID != ""
}
