package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
	StatementTimeout  time.Duration
	AutoMigrate       bool
}

// RedisConfig configures the refresh session store. URL, when set, wins over Addr/Password/DB.
type RedisConfig struct {
	URL       string
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	OpTimeout time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type AuthConfig struct {
	ActivationSecret   string
	AccessTokenSecret  string
	RefreshTokenSecret string
	ActivationTTL      time.Duration
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	TOTPIssuer         string
	TOTPEncryptionKey  []byte
	BcryptCost         int
	HashWorkers        int
	StoreRetryBackoff  time.Duration
	FailureDelay       time.Duration
	FailureJitter      time.Duration
}

// EmailConfig selects the activation mail transport. Provider "log" writes
// mails to the application log instead of sending them.
type EmailConfig struct {
	Provider    string
	AWSRegion   string
	FromAddress string
	AppURL      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	totpKey, err := decodeEncryptionKey(getEnv("AUTH_TOTP_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "authgate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			ConnectTimeout:    getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementTimeout:  getEnvAsDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", ""),
			OpTimeout: getEnvAsDuration("REDIS_OP_TIMEOUT", 500*time.Millisecond),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			ActivationSecret:   getEnv("AUTH_ACTIVATION_SECRET", ""),
			AccessTokenSecret:  getEnv("AUTH_ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret: getEnv("AUTH_REFRESH_TOKEN_SECRET", ""),
			ActivationTTL:      getEnvAsDuration("AUTH_ACTIVATION_TTL", 10*time.Minute),
			AccessTokenTTL:     getEnvAsDuration("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL:    getEnvAsDuration("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			TOTPIssuer:         getEnv("AUTH_TOTP_ISSUER", "authgate"),
			TOTPEncryptionKey:  totpKey,
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 14),
			HashWorkers:        getEnvAsInt("AUTH_HASH_WORKERS", 4),
			StoreRetryBackoff:  getEnvAsDuration("AUTH_STORE_RETRY_BACKOFF", 100*time.Millisecond),
			FailureDelay:       getEnvAsDuration("AUTH_FAILURE_DELAY", 0),
			FailureJitter:      getEnvAsDuration("AUTH_FAILURE_JITTER", 0),
		},
		Email: EmailConfig{
			Provider:    getEnv("EMAIL_PROVIDER", "log"),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@localhost"),
			AppURL:      strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := cfg.Auth.validate(env); err != nil {
		return nil, err
	}

	if cfg.Email.Provider != "ses" && cfg.Email.Provider != "log" {
		return nil, fmt.Errorf("EMAIL_PROVIDER must be \"ses\" or \"log\", got %q", cfg.Email.Provider)
	}
	if env == "production" && cfg.Email.Provider == "log" {
		return nil, fmt.Errorf("EMAIL_PROVIDER=log is not allowed in production: activation codes would never reach users")
	}

	return cfg, nil
}

func (a *AuthConfig) validate(env string) error {
	secrets := []struct {
		name  string
		value string
	}{
		{"AUTH_ACTIVATION_SECRET", a.ActivationSecret},
		{"AUTH_ACCESS_TOKEN_SECRET", a.AccessTokenSecret},
		{"AUTH_REFRESH_TOKEN_SECRET", a.RefreshTokenSecret},
	}

	for _, s := range secrets {
		if err := validateSecret(s.name, s.value, env); err != nil {
			return err
		}
	}

	if a.ActivationSecret == a.AccessTokenSecret ||
		a.ActivationSecret == a.RefreshTokenSecret ||
		a.AccessTokenSecret == a.RefreshTokenSecret {
		return fmt.Errorf("AUTH_ACTIVATION_SECRET, AUTH_ACCESS_TOKEN_SECRET and AUTH_REFRESH_TOKEN_SECRET must be distinct")
	}

	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 || a.ActivationTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if a.RefreshTokenTTL < a.AccessTokenTTL {
		return fmt.Errorf("AUTH_REFRESH_TOKEN_TTL must not be shorter than AUTH_ACCESS_TOKEN_TTL")
	}

	if len(a.TOTPEncryptionKey) != 32 {
		return fmt.Errorf("AUTH_TOTP_ENCRYPTION_KEY is required and must decode to 32 bytes")
	}

	return nil
}

// validateSecret enforces minimum security standards for a signing secret
func validateSecret(name, secret, env string) error {
	if secret == "" {
		return fmt.Errorf("%s is required", name)
	}

	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

func decodeEncryptionKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("AUTH_TOTP_ENCRYPTION_KEY must be base64: %w", err)
	}
	return key, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return parseList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
