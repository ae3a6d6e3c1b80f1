package auth

// Principal identifies one of the two independent credential contexts the
// backend issues tokens for. The end-user and admin consoles authenticate
// separately, so their tokens are tracked separately and never mixed.
type Principal int

const (
	// PrincipalUser is the customer-facing identity context.
	PrincipalUser Principal = iota
	// PrincipalAdmin is the admin console identity context.
	PrincipalAdmin
)

// principals lists both contexts in precedence order. User is checked before
// Admin for bearer selection, refresh-token selection and active-role
// resolution; the order must stay consistent across all three.
var principals = [2]Principal{PrincipalUser, PrincipalAdmin}

// String returns the role name the backend uses for this principal.
func (p Principal) String() string {
	switch p {
	case PrincipalUser:
		return "user"
	case PrincipalAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParsePrincipal maps a backend role string to a Principal.
func ParsePrincipal(role string) (Principal, bool) {
	switch role {
	case "user":
		return PrincipalUser, true
	case "admin":
		return PrincipalAdmin, true
	default:
		return 0, false
	}
}
