package domain

// StaffRole is a totally ordered access level. A single comparison grants a
// senior role every junior role's permissions.
type StaffRole int

const (
	RoleNone StaffRole = iota
	RoleScanner
	RoleCheckin
	RoleManager
)

// AtLeast reports whether the role grants the permissions of min.
func (r StaffRole) AtLeast(min StaffRole) bool {
	return r >= min
}

func (r StaffRole) String() string {
	switch r {
	case RoleScanner:
		return "SCANNER"
	case RoleCheckin:
		return "CHECKIN"
	case RoleManager:
		return "MANAGER"
	default:
		return "NONE"
	}
}

// ParseStaffRole maps a role name to its level. Unknown names map to NONE.
func ParseStaffRole(s string) StaffRole {
	switch s {
	case "SCANNER":
		return RoleScanner
	case "CHECKIN":
		return RoleCheckin
	case "MANAGER":
		return RoleManager
	default:
		return RoleNone
	}
}
