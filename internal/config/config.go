package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
	Risk      RiskConfig
	Auth      AuthConfig
	SMS       SMSConfig
	Storage   StorageConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// RateLimitConfig governs the public submission endpoints.
type RateLimitConfig struct {
	WindowSeconds int
	MaxRequests   int
	UseRedis      bool
}

// RiskConfig points at the bot-risk assessment provider.
type RiskConfig struct {
	AssessmentURL    string
	APIKey           string
	ProjectID        string
	SiteKey          string
	ExpectedAction   string
	ScoreThreshold   float64
	AllowedHostnames []string
	TimeoutSeconds   int
}

// AuthConfig defines staff authentication parameters.
type AuthConfig struct {
	AllowedEmails      []string
	GoogleTokenInfoURL string
	NaverUserInfoURL   string
	NaverTokenURL      string
	NaverClientID      string
	NaverClientSecret  string
	NaverRedirectURI   string
	TimeoutSeconds     int
}

// SMSConfig holds messaging gateway relay credentials.
type SMSConfig struct {
	RelayURL       string
	APIKey         string
	UserID         string
	Sender         string
	TimeoutSeconds int
}

// StorageConfig points at the object-store signer collaborator.
type StorageConfig struct {
	BaseURL               string
	Bucket                string
	UploadURLTTLMinutes   int
	DownloadURLTTLMinutes int
	TimeoutSeconds        int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("RISK_SCORE_THRESHOLD", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_SCORE_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "inquiry-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			MaxRequests:   getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 10),
			UseRedis:      getEnvAsBool("RATE_LIMIT_USE_REDIS", false),
		},
		Risk: RiskConfig{
			AssessmentURL:    getEnv("RISK_ASSESSMENT_URL", "https://recaptchaenterprise.googleapis.com/v1"),
			APIKey:           os.Getenv("RISK_API_KEY"),
			ProjectID:        getEnv("RISK_PROJECT_ID", "apsconsulting"),
			SiteKey:          os.Getenv("RISK_SITE_KEY"),
			ExpectedAction:   getEnv("RISK_EXPECTED_ACTION", "contact"),
			ScoreThreshold:   threshold,
			AllowedHostnames: getEnvAsList("RISK_ALLOWED_HOSTNAMES"),
			TimeoutSeconds:   getEnvAsInt("RISK_TIMEOUT_SECONDS", 5),
		},
		Auth: AuthConfig{
			AllowedEmails:      getEnvAsList("ALLOWED_EMAILS"),
			GoogleTokenInfoURL: getEnv("GOOGLE_TOKENINFO_URL", "https://www.googleapis.com/oauth2/v3/tokeninfo"),
			NaverUserInfoURL:   getEnv("NAVER_USERINFO_URL", "https://openapi.naver.com/v1/nid/me"),
			NaverTokenURL:      getEnv("NAVER_TOKEN_URL", "https://nid.naver.com/oauth2.0/token"),
			NaverClientID:      os.Getenv("NAVER_CLIENT_ID"),
			NaverClientSecret:  os.Getenv("NAVER_CLIENT_SECRET"),
			NaverRedirectURI:   os.Getenv("NAVER_REDIRECT_URI"),
			TimeoutSeconds:     getEnvAsInt("AUTH_TIMEOUT_SECONDS", 5),
		},
		SMS: SMSConfig{
			RelayURL:       os.Getenv("SMS_RELAY_URL"),
			APIKey:         os.Getenv("SMS_API_KEY"),
			UserID:         os.Getenv("SMS_USER_ID"),
			Sender:         os.Getenv("SMS_SENDER_PHONE"),
			TimeoutSeconds: getEnvAsInt("SMS_TIMEOUT_SECONDS", 5),
		},
		Storage: StorageConfig{
			BaseURL:               os.Getenv("STORAGE_SIGNER_URL"),
			Bucket:                getEnv("STORAGE_BUCKET", "aps-list"),
			UploadURLTTLMinutes:   getEnvAsInt("STORAGE_UPLOAD_URL_TTL_MINUTES", 15),
			DownloadURLTTLMinutes: getEnvAsInt("STORAGE_DOWNLOAD_URL_TTL_MINUTES", 60),
			TimeoutSeconds:        getEnvAsInt("STORAGE_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Window returns the rate-limit window duration.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
