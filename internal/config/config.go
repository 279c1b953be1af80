package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// AuthSecret signs session tokens. Every instance must share the same value.
	AuthSecret         string
	AllowedEmailDomain string
	LoginCodeTTL       time.Duration
	SessionMaxAge      time.Duration
	CodeStore          string // "memory" | "dynamo"

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	DataSource   string // "file" | "s3"
	DataDir      string
	S3BucketName string
	S3ClassKey   string
	S3StudentKey string

	MailProvider   string // "smtp" | "sendgrid"
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	MailSenderName string
	SendGridAPIKey string

	ClassSyncAPIURL string
	ClassSyncAPIKey string
	SyncTopicARN    string
	SNSRegion       string

	AllowedOrigins []string // CORS allowed origins
	// TrustedProxies are the CIDRs whose X-Forwarded-For is used to key rate limits.
	TrustedProxies []string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	LoginCodes string
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// IsDevelopment reports whether the app runs with APP_ENV=development.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "production"),

		AuthSecret:         os.Getenv("AUTH_SECRET"),
		AllowedEmailDomain: strings.ToLower(getEnv("ALLOWED_EMAIL_DOMAIN", "tschool.tp.edu.tw")),
		LoginCodeTTL:       getEnvDuration("LOGIN_CODE_TTL", 5*time.Minute),
		SessionMaxAge:      getEnvDuration("SESSION_MAX_AGE", 30*24*time.Hour),
		CodeStore:          getEnv("CODE_STORE", "memory"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			LoginCodes: getEnv("DYNAMO_TABLE_LOGIN_CODES", "login_codes"),
		},

		DataSource:   getEnv("DATA_SOURCE", "file"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		S3BucketName: getEnv("S3_BUCKET_NAME", "classsync-data"),
		S3ClassKey:   getEnv("S3_CLASS_KEY", "class.json"),
		S3StudentKey: getEnv("S3_STUDENT_KEY", "student.json"),

		MailProvider:   getEnv("MAIL_PROVIDER", "smtp"),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailSenderName: getEnv("MAIL_SENDER_NAME", "ClassSync"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		ClassSyncAPIURL: strings.TrimRight(getEnv("CLASSSYNC_API_URL", ""), "/"),
		ClassSyncAPIKey: getEnv("CLASSSYNC_API_KEY", ""),
		SyncTopicARN:    getEnv("SYNC_TOPIC_ARN", ""),
		SNSRegion:       getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("5m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n := getEnvInt(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
