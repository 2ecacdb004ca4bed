// Package config loads application configuration from environment
// variables. A .env file in the working directory, when present, is read
// first; variables already set in the environment win.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	glog "github.com/labstack/gommon/log"
)

// Config holds the runtime configuration of the API server.
type Config struct {
	Env            string        // application environment (dev, test, prod)
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	BcryptCost     int           // bcrypt cost for password hashing
	LogLevel       glog.Lvl      // gommon log level for every component logger
	RequestTimeout time.Duration // per-request deadline set by the timeout middleware
	SettingsTTL    time.Duration // Redis TTL of cached tariff settings
}

// Load reads configuration values from the environment. Required variables
// are enforced by must() and a missing value stops the process.
func Load() Config {
	loadDotEnv()
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		LogLevel:       ParseLogLevel(envStr("LOG_LEVEL", "info")),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
		SettingsTTL:    envDur("SETTINGS_CACHE_TTL", time.Minute),
	}
}

// loadDotEnv reads ENV_FILE (default .env) when it exists.
func loadDotEnv() {
	path := envStr("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("config: ignoring %s: %v", path, err)
	}
}

// ParseLogLevel maps a level name onto gommon's levels. Unknown names mean
// INFO.
func ParseLogLevel(s string) glog.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return glog.DEBUG
	case "warn", "warning":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
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
