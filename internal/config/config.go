package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	DBDriver string
	DSN      string

	ServerPort string

	JWTSecret     string
	JWTExpiration time.Duration

	CORSOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	Debug bool
}

// Load reads .env from the working directory when it exists and builds the
// config from the process environment. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates the config using getenv for lookups.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDriver:    valueOr(getenv("DB_DRIVER"), "postgres"),
		ServerPort:  valueOr(getenv("SERVER_PORT"), "8000"),
		JWTSecret:   getenv("JWT_SECRET"),
		CORSOrigins: splitList(valueOr(getenv("CORS_ORIGINS"), "http://localhost:3000,http://localhost:3001")),
	}

	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}

	days, err := intVar(getenv, "JWT_EXPIRATION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.JWTExpiration = time.Duration(days) * 24 * time.Hour

	if cfg.LoginRateLimit, err = intVar(getenv, "LOGIN_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = durationVar(getenv, "LOGIN_RATE_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	if raw := getenv("DEBUG"); raw != "" {
		if cfg.Debug, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("DEBUG: %w", err)
		}
	}

	if cfg.DSN, err = buildDSN(cfg.DBDriver, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDSN(driver string, getenv func(string) string) (string, error) {
	switch driver {
	case "postgres":
		if url := getenv("DATABASE_URL"); url != "" {
			return url, nil
		}
		for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
			if getenv(key) == "" {
				return "", fmt.Errorf("environment variable %s must be set", key)
			}
		}
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			valueOr(getenv("POSTGRES_HOST"), "localhost"),
			getenv("POSTGRES_USER"),
			getenv("POSTGRES_PASSWORD"),
			getenv("POSTGRES_DB"),
			valueOr(getenv("POSTGRES_PORT"), "5432"),
		), nil
	case "sqlite3":
		if url := getenv("DATABASE_URL"); url != "" {
			return url, nil
		}
		path := valueOr(getenv("SQLITE_PATH"), "todo.db")
		return "file:" + path + "?_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", driver)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intVar(getenv func(string) string, key string, fallback int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func durationVar(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
