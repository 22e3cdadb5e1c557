package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, int64 slices for Telegram ids.
type Config struct {
	Env               string  // application environment (e.g. "dev", "prod")
	Port              string  // HTTP port to listen on
	DBUser            string  // database username
	DBPass            string  // database password (optional)
	DBHost            string  // database host address
	DBPort            string  // database port number
	DBName            string  // database name
	JWTSecret         string  // secret used to sign admin JWTs
	AccessTTLMin      int     // access token time-to-live in minutes
	BcryptCost        int     // bcrypt cost for password hashing
	AdminPasswordHash string  // bcrypt hash the admin panel login checks against
	BotToken          string  // Telegram bot token (empty disables the notifier)
	AdminTgIDs        []int64 // Telegram ids allowed to use admin bot commands
	AMQPURL           string  // RabbitMQ connection URL (empty disables the queue)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The Telegram and
// RabbitMQ integrations are optional so the store can run headless in
// tests and local development.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),                   // environment (dev/test/prod)
		Port:              must("APP_PORT"),                  // port to bind the HTTP server
		DBUser:            must("DB_USER"),                   // database user
		DBPass:            os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:            must("DB_HOST"),                   // database host
		DBPort:            must("DB_PORT"),                   // database port
		DBName:            must("DB_NAME"),                   // database name
		JWTSecret:         must("JWT_SECRET"),                // secret used for signing JWTs
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		BcryptCost:        mustInt("BCRYPT_COST"),            // bcrypt cost factor
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),       // bcrypt hash of the admin panel password
		BotToken:          os.Getenv("BOT_TOKEN"),            // Telegram bot token (optional)
		AdminTgIDs:        parseIDs(os.Getenv("ADMIN_IDS")),  // comma-separated admin Telegram ids
		AMQPURL:           os.Getenv("AMQP_URL"),             // RabbitMQ URL (optional)
	}
}

// IsAdmin reports whether the given Telegram id is in the configured
// admin list.
func (c Config) IsAdmin(tgID int64) bool {
	for _, id := range c.AdminTgIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// parseIDs splits a comma-separated list of Telegram ids.  Malformed
// entries are fatal: a typo here would silently lock an admin out.
func parseIDs(raw string) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			log.Fatalf("invalid Telegram id in ADMIN_IDS: %q", p)
		}
		ids = append(ids, id)
	}
	return ids
}
