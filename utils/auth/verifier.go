package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Roles   RoleSet
	Claims  map[string]interface{}
}

// VerifierConfig holds identity-provider verification settings.
type VerifierConfig struct {
	Domain   string // provider tenant domain, e.g. tenant.auth0.com
	Audience string
	Issuer   string
}

// Verifier validates RS256 bearer tokens against the provider's JWKS. The
// key set is fetched lazily, cached, and refreshed on a bounded rate by the
// underlying keyfunc storage; it is the only shared cross-request state in
// the auth layer.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewVerifier builds a Verifier for the given provider configuration.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Domain)

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load provider JWKS: %w", err)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(cfg.Audience),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)

	return &Verifier{keyfunc: kf.Keyfunc, parser: parser}, nil
}

// Verify validates the token and resolves the caller identity from its
// claims, including the role claim fallback chain.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	ident := &Identity{
		Subject: sub,
		Roles:   ParseRoleSet(RolesFromClaims(claims)),
		Claims:  claims,
	}
	ident.Email, _ = claims["email"].(string)
	ident.Name, _ = claims["name"].(string)
	ident.Picture, _ = claims["picture"].(string)

	return ident, nil
}
