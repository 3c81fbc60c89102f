package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	LogDev             bool
	LogFile            string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	JWTTTL             time.Duration
	CORSOrigins        []string
	RedisURL           string
	RateLimit          int
	RateLimitWindow    time.Duration
	PhoneCountryCode   string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// EnvFile is the dotenv file that was loaded, if any
	EnvFile string
}

const developmentSecret = "makanika-development-secret"

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Environment-specific file first, then .env; in production variables are set directly
	loaded := ""
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err == nil {
		loaded = envFile
	} else if err := godotenv.Load(); err == nil {
		loaded = ".env"
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite://makanika.db"),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDev:             getEnv("LOG_DEV", "0") == "1",
		LogFile:            getEnv("LOG_FILE", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "makanika-api"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "makanika-clients"),
		JWTTTL:             time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		CORSOrigins:        parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimit:          getEnvInt("RATE_LIMIT", 30),
		RateLimitWindow:    time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		PhoneCountryCode:   getEnv("PHONE_COUNTRY_CODE", "256"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		EnvFile:            loaded,
	}

	if config.JWTSecret == "" && !config.IsProduction() {
		config.JWTSecret = developmentSecret
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == developmentSecret {
		return fmt.Errorf("JWT_SECRET must be set explicitly in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// PhotoStorageEnabled reports whether job photos can be stored in S3
func (c *Config) PhotoStorageEnabled() bool {
	return c.AWSS3Bucket != ""
}

// HTTPAddress returns the address for the HTTP server to bind to
func (c *Config) HTTPAddress() string {
	return ":" + c.Port
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
