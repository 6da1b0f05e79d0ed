package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Gateway credentials are
// grouped per provider; a provider with no credentials configured is
// simply not registered.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to verify access tokens
	BanquetTables int    // number of banquet tables in the venue
	AMQPURL       string // RabbitMQ connection URL (optional)

	CyberSource CyberSourceConfig
	PayHere     PayHereConfig
}

// CyberSourceConfig carries the Secure Acceptance profile
// credentials.
type CyberSourceConfig struct {
	ProfileID string
	AccessKey string
	SecretKey string
	ActionURL string
	Currency  string
}

// Enabled reports whether the provider is fully configured.
func (c CyberSourceConfig) Enabled() bool {
	return c.ProfileID != "" && c.AccessKey != "" && c.SecretKey != ""
}

// PayHereConfig carries the PayHere merchant credentials and the
// callback URLs embedded in checkout forms.
type PayHereConfig struct {
	MerchantID string
	Secret     string
	ActionURL  string
	ReturnURL  string
	CancelURL  string
	NotifyURL  string
	Currency   string
}

// Enabled reports whether the provider is fully configured.
func (c PayHereConfig) Enabled() bool {
	return c.MerchantID != "" && c.Secret != ""
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		BanquetTables: envIntDefault("BANQUET_TABLES", 50),
		AMQPURL:       os.Getenv("RABBITMQ_URL"),
		CyberSource: CyberSourceConfig{
			ProfileID: os.Getenv("CYBERSOURCE_PROFILE_ID"),
			AccessKey: os.Getenv("CYBERSOURCE_ACCESS_KEY"),
			SecretKey: os.Getenv("CYBERSOURCE_SECRET_KEY"),
			ActionURL: envStr("CYBERSOURCE_ACTION_URL", "https://testsecureacceptance.cybersource.com/pay"),
			Currency:  envStr("CYBERSOURCE_CURRENCY", "USD"),
		},
		PayHere: PayHereConfig{
			MerchantID: os.Getenv("PAYHERE_MERCHANT_ID"),
			Secret:     os.Getenv("PAYHERE_SECRET"),
			ActionURL:  envStr("PAYHERE_ACTION_URL", "https://sandbox.payhere.lk/pay/checkout"),
			ReturnURL:  os.Getenv("PAYHERE_RETURN_URL"),
			CancelURL:  os.Getenv("PAYHERE_CANCEL_URL"),
			NotifyURL:  os.Getenv("PAYHERE_NOTIFY_URL"),
			Currency:   envStr("PAYHERE_CURRENCY", "LKR"),
		},
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal error
// and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envIntDefault reads an integer environment variable with a default
// for when it is unset, exiting on malformed values.
func envIntDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
