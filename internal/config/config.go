// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	RoomTokenSecret string        // secret used to sign room-entry JWTs
	RoomTokenTTLMin int           // room-entry token time-to-live in minutes
	SessionTTL      time.Duration // lifetime of non-permanent sessions
	SweepInterval   time.Duration // how often the session sweeper runs
	BcryptCost      int           // bcrypt cost for password hashing
	DefaultTimezone string        // timezone filled in for candidates without one
	DefaultCountry  string        // country filled in for candidates without an address
	DefaultLocaleID uint32        // locale filled in for candidates without one
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		RoomTokenSecret: must("ROOM_TOKEN_SECRET"),
		RoomTokenTTLMin: envInt("ROOM_TOKEN_TTL_MIN", 60),
		SessionTTL:      envDur("SESSION_TTL", 15*time.Minute),
		SweepInterval:   envDur("SESSION_SWEEP_INTERVAL", time.Minute),
		BcryptCost:      envInt("BCRYPT_COST", 12),
		DefaultTimezone: envStr("DEFAULT_TIMEZONE", "Europe/Berlin"),
		DefaultCountry:  envStr("DEFAULT_COUNTRY", "DE"),
		DefaultLocaleID: uint32(envInt("DEFAULT_LOCALE_ID", 1)),
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
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
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
