package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for name, want := range map[string]Role{
		"admin":   RoleAdmin,
		"teacher": RoleTeacher,
		"student": RoleStudent,
	} {
		got, ok := ParseRole(name)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok, "unknown role literals must be rejected")
	_, ok = ParseRole("Admin")
	assert.False(t, ok, "role literals are case sensitive")
}

func TestParseRoleSetDropsUnknown(t *testing.T) {
	set := ParseRoleSet([]string{"admin", "wizard", "student"})
	assert.True(t, set.Has(RoleAdmin))
	assert.True(t, set.Has(RoleStudent))
	assert.False(t, set.Has(RoleTeacher))
	assert.Len(t, set, 2)
}

func TestRoleSetIntersects(t *testing.T) {
	staff := NewRoleSet(RoleTeacher, RoleAdmin)

	assert.True(t, NewRoleSet(RoleTeacher).Intersects(staff))
	assert.True(t, NewRoleSet(RoleAdmin, RoleStudent).Intersects(staff))
	assert.False(t, NewRoleSet(RoleStudent).Intersects(staff))
	assert.False(t, NewRoleSet().Intersects(staff))
}

func TestRoleSetStringsOrder(t *testing.T) {
	set := NewRoleSet(RoleStudent, RoleAdmin)
	assert.Equal(t, []string{"admin", "student"}, set.Strings())
}

func TestRolesFromClaimsPrecedence(t *testing.T) {
	claims := map[string]interface{}{
		"https://edu-platform.com/roles": []interface{}{"admin"},
		"roles":                          []interface{}{"student"},
		"permissions":                    []interface{}{"teacher"},
	}
	assert.Equal(t, []string{"admin"}, RolesFromClaims(claims))

	// Without the namespaced claim, the bare claim wins over permissions.
	delete(claims, "https://edu-platform.com/roles")
	assert.Equal(t, []string{"student"}, RolesFromClaims(claims))

	delete(claims, "roles")
	assert.Equal(t, []string{"teacher"}, RolesFromClaims(claims))
}

func TestRolesFromClaimsCoercion(t *testing.T) {
	t.Run("single string becomes one-element list", func(t *testing.T) {
		claims := map[string]interface{}{"roles": "teacher"}
		assert.Equal(t, []string{"teacher"}, RolesFromClaims(claims))
	})

	t.Run("interface slice keeps string elements", func(t *testing.T) {
		claims := map[string]interface{}{"roles": []interface{}{"admin", 42, "student"}}
		assert.Equal(t, []string{"admin", "student"}, RolesFromClaims(claims))
	})

	t.Run("string slice passes through", func(t *testing.T) {
		claims := map[string]interface{}{"roles": []string{"admin"}}
		assert.Equal(t, []string{"admin"}, RolesFromClaims(claims))
	})

	t.Run("empty values fall through to the next claim", func(t *testing.T) {
		claims := map[string]interface{}{
			"https://edu-platform.com/roles": []interface{}{},
			"roles":                          "",
			"permissions":                    []interface{}{"student"},
		}
		assert.Equal(t, []string{"student"}, RolesFromClaims(claims))
	})

	t.Run("no role claims yields nil", func(t *testing.T) {
		assert.Nil(t, RolesFromClaims(map[string]interface{}{"sub": "auth0|abc"}))
	})
}
