package auth

import "fmt"

// Role is the closed set of platform roles.
type Role int

const (
	RoleAdmin Role = iota
	RoleTeacher
	RoleStudent
)

var roleNames = map[Role]string{
	RoleAdmin:   "admin",
	RoleTeacher: "teacher",
	RoleStudent: "student",
}

var rolesByName = map[string]Role{
	"admin":   RoleAdmin,
	"teacher": RoleTeacher,
	"student": RoleStudent,
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps a role literal to its Role. Unknown literals are rejected
// so stray claim values never widen the role set.
func ParseRole(s string) (Role, bool) {
	r, ok := rolesByName[s]
	return r, ok
}

// RoleSet is a set of Roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// ParseRoleSet builds a set from role literals, dropping unknown ones.
func ParseRoleSet(names []string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		if r, ok := ParseRole(name); ok {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains the role.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	for r := range s {
		if other.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the role literals in enum order.
func (s RoleSet) Strings() []string {
	names := make([]string, 0, len(s))
	for _, r := range []Role{RoleAdmin, RoleTeacher, RoleStudent} {
		if s.Has(r) {
			names = append(names, r.String())
		}
	}
	return names
}

// roleClaimKeys are the token claim locations searched for role information,
// in priority order. The first non-empty match wins.
var roleClaimKeys = []string{
	"https://edu-platform.com/roles",
	"roles",
	"https://your-domain.auth0.com/roles",
	"permissions",
}

// RolesFromClaims extracts role literals from decoded token claims. A single
// string value is coerced into a one-element list; no match yields nil.
func RolesFromClaims(claims map[string]interface{}) []string {
	for _, key := range roleClaimKeys {
		value, ok := claims[key]
		if !ok || value == nil {
			continue
		}

		switch v := value.(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		case []interface{}:
			roles := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					roles = append(roles, s)
				}
			}
			if len(roles) > 0 {
				return roles
			}
		}
	}
	return nil
}
