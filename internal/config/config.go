package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the order window and sweep interval
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The order window and sweep interval are kept
// here as the single source of truth: the purchase guard, the expiry
// sweeper and the admin endpoint all read the same value.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	PromptPayID    string        // PromptPay target: phone number or national ID
	SlipOKURL      string        // slip verification endpoint (empty disables the path)
	SlipOKSecret   string        // x-authorization secret for the verifier
	UploadDir      string        // root directory for slip images
	OrderWindow    time.Duration // how long a PENDING order holds its stock
	SweepInterval  time.Duration // how often the expiry sweeper runs
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Payment and sweep
// settings have defaults so a bare catalog deployment still starts.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		PromptPayID:    os.Getenv("PROMPTPAY_ACCOUNT"),
		SlipOKURL:      os.Getenv("SLIPOK_URL"),
		SlipOKSecret:   os.Getenv("SLIPOK_SECRET_KEY"),
		UploadDir:      defStr("UPLOAD_DIR", "uploads"),
		OrderWindow:    time.Duration(defInt("ORDER_PENDING_WINDOW_MIN", 10)) * time.Minute,
		SweepInterval:  time.Duration(defInt("ORDER_SWEEP_INTERVAL_SEC", 60)) * time.Second,
	}
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

// defStr reads an optional string variable with a fallback.
func defStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// defInt reads an optional positive integer variable with a fallback.
// Invalid values fall back rather than aborting startup.
func defInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
