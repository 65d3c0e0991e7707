package models

// Role is the single role assigned to an account.
//
// The zero value RoleNone represents an account without a (recognised) role.
// It is a distinct state, never treated as the weakest role.
type Role string

const (
	RoleNone          Role = ""
	RoleAdministrator Role = "Administrator"
	RoleUserManager   Role = "User_Manager"
	RoleNormalUser    Role = "Normal_User"
)

// Authority levels used for account management.
// AuthorityNone is lower than every real role.
type Authority int

const (
	AuthorityNone Authority = iota
	AuthorityNormalUser
	AuthorityUserManager
	AuthorityAdministrator
)

// Roles lists every assignable role, strongest first.
var Roles = []Role{RoleAdministrator, RoleUserManager, RoleNormalUser}

// ParseRole maps a role name to a Role.
// Unknown names return RoleNone and false.
func ParseRole(name string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == name {
			return r, true
		}
	}
	return RoleNone, false
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Authority returns the account-management authority of r.
func (r Role) Authority() Authority {
	switch r {
	case RoleAdministrator:
		return AuthorityAdministrator
	case RoleUserManager:
		return AuthorityUserManager
	case RoleNormalUser:
		return AuthorityNormalUser
	default:
		return AuthorityNone
	}
}

// AtLeast reports whether r carries at least the authority of other.
// RoleNone is never at least anything, including itself.
func (r Role) AtLeast(other Role) bool {
	a := r.Authority()
	return a != AuthorityNone && a >= other.Authority()
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}
