package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required values are enforced at startup; the
// optional integrations (Stripe, RabbitMQ, Kafka, Elasticsearch, SMTP) are
// disabled when their variables are empty.
type Config struct {
	Env      string // application environment (e.g. "development", "production")
	Port     string // HTTP port to listen on
	LogLevel string // debug, info, warn or error
	Origins  []string

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	AccessSecret     string // signs access tokens
	RefreshSecret    string // signs refresh tokens; must differ from AccessSecret
	ActivationSecret string // signs activation tokens
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ActivationTTL    time.Duration
	SessionTTL       time.Duration
	SessionPrefix    string
	BcryptCost       int // bcrypt cost for password hashing

	StripeSecretKey      string
	StripePublishableKey string

	RabbitURL     string
	KafkaBrokers  []string
	KafkaTopic    string
	ElasticURLs   []string
	ElasticUser   string
	ElasticPass   string
	ElasticIndex  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	CleanupSpec   string        // cron spec for the notification sweep
	CleanupMaxAge time.Duration // read notifications older than this are deleted
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool { return strings.EqualFold(c.Env, "production") }

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:      must("APP_ENV"),
		Port:     must("APP_PORT"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Origins:  splitList(getenv("ORIGIN", "http://localhost:3000")),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		AccessSecret:     must("ACCESS_TOKEN"),
		RefreshSecret:    must("REFRESH_TOKEN"),
		ActivationSecret: must("ACTIVATION_SECRET"),
		AccessTTL:        time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MIN", 5)) * time.Minute,
		RefreshTTL:       time.Duration(envInt("REFRESH_TOKEN_EXPIRE_DAYS", 3)) * 24 * time.Hour,
		ActivationTTL:    time.Duration(envInt("ACTIVATION_TOKEN_EXPIRE_MIN", 5)) * time.Minute,
		SessionTTL:       time.Duration(envInt("SESSION_TTL_DAYS", 7)) * 24 * time.Hour,
		SessionPrefix:    os.Getenv("SESSION_PREFIX"),
		BcryptCost:       mustInt("BCRYPT_COST"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),

		RabbitURL:     os.Getenv("RABBITMQ_URL"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "lms.events"),
		ElasticURLs:   splitList(os.Getenv("ES_URL")),
		ElasticUser:   os.Getenv("ES_USER"),
		ElasticPass:   os.Getenv("ES_PASSWORD"),
		ElasticIndex:  getenv("ES_INDEX", "courses"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_MAIL"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      getenv("SMTP_FROM", os.Getenv("SMTP_MAIL")),
		CleanupSpec:   getenv("NOTIFICATION_CLEANUP_CRON", "0 0 0 * * *"),
		CleanupMaxAge: time.Duration(envInt("NOTIFICATION_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
