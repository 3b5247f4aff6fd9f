package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
		// Tokens lists accepted BIZ_TOKEN values; empty disables the check.
		Tokens []string
		// RateLimit is requests per second per client; 0 disables limiting.
		RateLimit float64 `validate:"gte=0"`
		RateBurst int     `validate:"gte=1"`
	}
	GRPC struct {
		// Addr is optional; an empty address disables the gRPC server.
		Addr string
	}
	DB struct {
		Driver     string `validate:"required,oneof=sqlite postgres"`
		SQLitePath string
		PGDSN      string
	}
	LowStock struct {
		Schedule  string `validate:"required"`
		Threshold int    `validate:"gte=0"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	var c Config
	c.Env = get("ENV", "prod")
	c.HTTP.Addr = get("HTTP_ADDR", ":8080")
	c.HTTP.Tokens = ParseList(getenv("API_TOKENS"))
	c.GRPC.Addr = getenv("GRPC_ADDR")
	c.DB.Driver = strings.ToLower(get("DB_DRIVER", "sqlite"))
	c.DB.SQLitePath = get("SQLITE_PATH", "data/bizflow.db")
	c.DB.PGDSN = getenv("PG_DSN")
	c.LowStock.Schedule = get("LOW_STOCK_SCHEDULE", "@every 5m")
	c.Log.ConsoleLevel = strings.ToLower(get("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(get("LOG_FILE_LEVEL", "debug"))
	c.Log.File = get("LOG_FILE", "data/logs/bizflow.log")

	rps, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return Config{}, errors.New("RATE_LIMIT_RPS must be a number")
	}
	c.HTTP.RateLimit = rps
	burst, err := strconv.Atoi(get("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return Config{}, errors.New("RATE_LIMIT_BURST must be an integer")
	}
	c.HTTP.RateBurst = burst

	threshold, err := strconv.Atoi(get("LOW_STOCK_THRESHOLD", "5"))
	if err != nil {
		return Config{}, errors.New("LOW_STOCK_THRESHOLD must be an integer")
	}
	c.LowStock.Threshold = threshold

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.DB.Driver == "postgres" && c.DB.PGDSN == "" {
		return Config{}, errors.New("PG_DSN required when DB_DRIVER=postgres")
	}
	return c, nil
}

// ParseList splits s on commas and newlines, dropping blanks.
func ParseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\t' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
