package employee

import "strings"

type Role uint8

const (
	RoleIADAdmin Role = iota + 1
	RoleClinicAdmin
	RoleHRAdmin
	RoleHRManager
)

var roleNames = map[Role]string{
	RoleIADAdmin:    "iad_admin",
	RoleClinicAdmin: "clinic_admin",
	RoleHRAdmin:     "hr_admin",
	RoleHRManager:   "hr_manager",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == s {
			return role, true
		}
	}
	return 0, false
}

// AllRoles is ordered so callers iterate deterministically.
var AllRoles = []Role{RoleIADAdmin, RoleClinicAdmin, RoleHRAdmin, RoleHRManager}

// RoleSet is a bitset of roles held by one employee.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.Add(r)
	}
	return s
}

func (s RoleSet) Add(r Role) RoleSet {
	if r == 0 || r > RoleHRManager {
		return s
	}
	return s | 1<<(r-1)
}

func (s RoleSet) Has(r Role) bool {
	if r == 0 || r > RoleHRManager {
		return false
	}
	return s&(1<<(r-1)) != 0
}

func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) Strings() []string {
	roles := s.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}
