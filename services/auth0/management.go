// Package auth0 talks to the identity provider's Management API for
// profile reads and user_metadata updates. Token issuance and verification
// stay entirely on the provider side.
package auth0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/edupress/edu-platform-api/utils/cache"
)

const (
	// DefaultTimeout bounds every Management API call.
	DefaultTimeout = 30 * time.Second

	tokenCacheKey   = "auth0:management:token"
	profileCacheTTL = 5 * time.Minute
)

// Config holds the provider tenant credentials.
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
}

// Client is a Management API client. The client-credentials token and
// fetched profiles are cached in redis when a cache is available.
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	cache      *cache.RedisCache
}

// Profile is the provider-side user record the platform reads.
type Profile struct {
	UserID       string                 `json:"user_id"`
	Email        string                 `json:"email"`
	Name         string                 `json:"name"`
	Picture      string                 `json:"picture"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// NewClient creates a Management API client. The cache may be nil, in which
// case a fresh token is requested per call and profiles are never cached.
func NewClient(config Config, redisCache *cache.RedisCache) *Client {
	return &Client{
		config:     config,
		baseURL:    fmt.Sprintf("https://%s", config.Domain),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cache:      redisCache,
	}
}

func profileCacheKey(userID string) string {
	return "auth0:profile:" + userID
}

// GetUser fetches a provider user profile, serving recently fetched profiles
// from the cache. Failures are logged and returned to the caller, never
// swallowed.
func (c *Client) GetUser(ctx context.Context, userID string) (*Profile, error) {
	if c.cache != nil {
		var cached Profile
		if err := c.cache.GetJSON(ctx, profileCacheKey(userID), &cached); err == nil {
			return &cached, nil
		}
	}

	var profile Profile
	path := fmt.Sprintf("/api/v2/users/%s", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		log.Errorf("auth0: failed to fetch user %s: %v", userID, err)
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, profileCacheKey(userID), profile, profileCacheTTL); err != nil {
			log.Warnf("auth0: failed to cache profile for user %s: %v", userID, err)
		}
	}
	return &profile, nil
}

// UpdateUserMetadata patches a provider user's user_metadata and drops the
// cached profile so the next read sees the update.
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]interface{}) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/api/v2/users/%s", url.PathEscape(userID))
	body := map[string]interface{}{"user_metadata": metadata}
	if err := c.do(ctx, http.MethodPatch, path, body, &profile); err != nil {
		log.Errorf("auth0: failed to update metadata for user %s: %v", userID, err)
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Delete(ctx, profileCacheKey(userID)); err != nil {
			log.Warnf("auth0: failed to invalidate cached profile for user %s: %v", userID, err)
		}
	}
	return &profile, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.managementToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("management API %s %s returned %d: %s", method, path, resp.StatusCode, data)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// managementToken returns a client-credentials token, reusing the cached one
// until shortly before it expires.
func (c *Client) managementToken(ctx context.Context) (string, error) {
	if c.cache != nil {
		if token, err := c.cache.Get(ctx, tokenCacheKey); err == nil && token != "" {
			return token, nil
		}
	}

	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"audience":      fmt.Sprintf("%s/api/v2/", c.baseURL),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, data)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}

	if c.cache != nil && tr.ExpiresIn > 60 {
		// expire the cache entry a minute early to avoid using a stale token
		ttl := time.Duration(tr.ExpiresIn-60) * time.Second
		if err := c.cache.Set(ctx, tokenCacheKey, tr.AccessToken, ttl); err != nil {
			log.Warnf("auth0: failed to cache management token: %v", err)
		}
	}

	return tr.AccessToken, nil
}
