package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV points at a deployed
// environment where the platform injects them directly.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// requiredVars must be present at startup; missing ones are fatal.
var requiredVars = []string{
	"AUTH0_DOMAIN",
	"AUTH0_CLIENT_ID",
	"AUTH0_CLIENT_SECRET",
	"AUTH0_AUDIENCE",
	"MONGODB_URI",
}

// Config is the immutable process configuration, built once at startup and
// passed by reference to every component that needs it.
type Config struct {
	GoEnv      string
	Port       int
	CORSOrigin string

	// Document store
	MongoURI string
	MongoDB  string

	// Identity provider
	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0Audience     string
	Auth0Issuer       string

	// Object storage
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool
	MinioBucketName string

	// Cache
	RedisURL string

	// Security
	DeviceLimit int

	// Feature flags
	EnableDeviceTracking bool
	EnableFileUpload     bool
}

// Get reads and validates the process configuration. Missing required
// variables or malformed values are returned as a single error listing
// every problem.
func Get() (*Config, error) {
	var missing []string
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port < 1 || port > 65535 {
		port = 5000
	}

	deviceLimit, err := strconv.Atoi(os.Getenv("DEVICE_LIMIT"))
	if err != nil || deviceLimit < 1 {
		deviceLimit = 2
	}

	cfg := &Config{
		GoEnv:      os.Getenv("GO_ENV"),
		Port:       port,
		CORSOrigin: getEnvDefault("CORS_ORIGIN", "http://localhost:3000"),

		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  getEnvDefault("MONGODB_DATABASE", "edu-platform"),

		Auth0Domain:       os.Getenv("AUTH0_DOMAIN"),
		Auth0ClientID:     os.Getenv("AUTH0_CLIENT_ID"),
		Auth0ClientSecret: os.Getenv("AUTH0_CLIENT_SECRET"),
		Auth0Audience:     os.Getenv("AUTH0_AUDIENCE"),
		Auth0Issuer:       os.Getenv("AUTH0_ISSUER"),

		MinioEndpoint:   getEnvDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnvDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnvDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:     os.Getenv("MINIO_USE_SSL") == "true",
		MinioBucketName: getEnvDefault("MINIO_BUCKET_NAME", "edu-platform"),

		RedisURL: getEnvDefault("REDIS_URL", "redis://localhost:6379/0"),

		DeviceLimit: deviceLimit,

		EnableDeviceTracking: os.Getenv("ENABLE_DEVICE_TRACKING") != "false",
		EnableFileUpload:     os.Getenv("ENABLE_FILE_UPLOAD") != "false",
	}

	if cfg.Auth0Issuer == "" {
		cfg.Auth0Issuer = fmt.Sprintf("https://%s/", cfg.Auth0Domain)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	if !strings.Contains(c.Auth0Domain, ".") {
		errs = append(errs, "AUTH0_DOMAIN must be a valid domain (e.g. your-tenant.auth0.com)")
	}
	if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		errs = append(errs, "MONGODB_URI must be a valid MongoDB connection string")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnvDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
