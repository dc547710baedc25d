package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/edu-platform-api/services/auth0"
	authutil "github.com/edupress/edu-platform-api/utils/auth"
)

// A provider profile fetch that fails must fail the sync instead of falling
// back to token claims; the login handler turns that into a 500.
func TestSyncUserFailsWhenProviderUnreachable(t *testing.T) {
	management := auth0.NewClient(auth0.Config{
		Domain:       "127.0.0.1:1",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, nil)
	h := NewAuthHandler(nil, nil, management, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.syncUser(ctx, &authutil.Identity{
		Subject: "auth0|abc123",
		Email:   "jane@example.com",
		Roles:   authutil.NewRoleSet(authutil.RoleStudent),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider profile")
}

func TestUsernameFor(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		subject string
		want    string
	}{
		{"email local part", "jane.doe@example.com", "auth0|x", "jane_doe"},
		{"illegal characters replaced", "j+d@example.com", "auth0|x", "j_d"},
		{"no email falls back to subject", "", "google-oauth2|12345", "google_oauth2_12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usernameFor(tt.email, tt.subject))
		})
	}
}

func TestUsernameForBounds(t *testing.T) {
	long := strings.Repeat("a", 60) + "@example.com"
	assert.Len(t, usernameFor(long, "auth0|x"), 30)

	short := usernameFor("a@example.com", "x")
	assert.True(t, strings.HasPrefix(short, "user_"), "too-short names get a generated fallback, got %q", short)
	assert.GreaterOrEqual(t, len(short), 3)
}
