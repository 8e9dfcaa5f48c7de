package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration-valued settings

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Secrets and identifiers stay strings; durations
// and counts are parsed into their concrete types at load time so the rest
// of the application never re-parses configuration.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to verify admin bearer tokens

	PaymentBaseURL   string        // base URL of the payment gateway API
	PaymentSecretKey string        // secret key sent as bearer auth to the gateway
	SuccessURL       string        // where the gateway redirects after payment
	CancelURL        string        // where the gateway redirects on abandonment
	SessionTTL       time.Duration // lifetime of an unconfirmed checkout session

	AMQPURL string // RabbitMQ URL for the ticket delivery side channel (optional)

	Features Features // feature flags injected into checkout/pricing at construction
}

// Features are the global switches controlling whether checkout accepts
// baskets and whether flash sales participate in price resolution. They are
// loaded once and passed explicitly to the components that honour them, so
// tests can construct both enabled and disabled configurations without
// touching the environment.
type Features struct {
	CheckoutEnabled   bool
	FlashSalesEnabled bool
}

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is merged in first when it
// exists. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine; real env always wins

	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty password allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		PaymentBaseURL:   envStr("PAYMENT_BASE_URL", "https://api.stripe.com"),
		PaymentSecretKey: must("PAYMENT_SECRET_KEY"),
		SuccessURL:       must("CHECKOUT_SUCCESS_URL"),
		CancelURL:        must("CHECKOUT_CANCEL_URL"),
		SessionTTL:       envDur("CHECKOUT_SESSION_TTL", 30*time.Minute),

		AMQPURL: os.Getenv("RABBITMQ_URL"),

		Features: Features{
			CheckoutEnabled:   envBool("CHECKOUT_ENABLED", true),
			FlashSalesEnabled: envBool("FLASH_SALES_ENABLED", true),
		},
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

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
		return dur
	}
	return d
}
