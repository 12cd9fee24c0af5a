package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins; empty means same-origin only

	IPAllowList            []string
	IPDenyList             []string
	DisposableEmailDomains []string // appended to the built-in list
	SubmitRateLimit        int
	SubmitRateWindow       time.Duration
	DuplicateWindow        time.Duration
	CSRFTokenTTL           time.Duration
	CSRFCookieSecure       bool
	TokenEndpointRPS       float64
	TokenEndpointBurst     int
	PreviewServiceURL      string
	PreviewTimeout         time.Duration

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SecurityAlertTopicARN string
	SecurityArchiveBucket string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Submissions string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", ""),

		IPAllowList:            getEnvList("IP_ALLOW_LIST", "127.0.0.1"),
		IPDenyList:             getEnvList("IP_DENY_LIST", ""),
		DisposableEmailDomains: getEnvList("DISPOSABLE_EMAIL_DOMAINS", ""),
		SubmitRateLimit:        getEnvPositiveInt("SUBMIT_RATE_LIMIT", 3),
		SubmitRateWindow:       getEnvDuration("SUBMIT_RATE_WINDOW", 15*time.Minute),
		DuplicateWindow:        getEnvDuration("DUPLICATE_WINDOW", 30*time.Minute),
		CSRFTokenTTL:           getEnvDuration("CSRF_TOKEN_TTL", 30*time.Minute),
		CSRFCookieSecure:       getEnvBool("CSRF_COOKIE_SECURE", false),
		TokenEndpointRPS:       getEnvFloat("TOKEN_ENDPOINT_RPS", 1),
		TokenEndpointBurst:     getEnvPositiveInt("TOKEN_ENDPOINT_BURST", 10),
		PreviewServiceURL:      getEnv("PREVIEW_SERVICE_URL", "http://localhost:8000"),
		PreviewTimeout:         getEnvDuration("PREVIEW_TIMEOUT", 60*time.Second),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Submissions: getEnv("DYNAMO_TABLE_SUBMISSIONS", "recent_submissions"),
		},

		SecurityAlertTopicARN: getEnv("SECURITY_ALERT_TOPIC_ARN", ""),
		SecurityArchiveBucket: getEnv("SECURITY_ARCHIVE_BUCKET", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvPositiveInt is getEnvInt for counts where zero or less is meaningless.
func getEnvPositiveInt(key string, fallback int) int {
	if n := getEnvInt(key, fallback); n > 0 {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15m", "90s").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
