package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	DBUser string
	DBPass string
	DBHost string
	DBName string

	JWTSecret     string
	WebhookSecret string

	CORSAllowedOrigins []string

	// AutoReleaseInterval controls how often the auto-release sweep runs.
	// Zero disables the worker.
	AutoReleaseInterval time.Duration
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	dbUser := envOr("DB_USER", "root")
	dbPass := os.Getenv("DB_PASS")
	dbHost := envOr("DB_HOST", "127.0.0.1:3306")
	dbName := envOr("DB_NAME", "vivahahub")

	jwtSecret := envOr("JWT_SECRET", "super-secret-key-change-me")
	webhookSecret := strings.TrimSpace(os.Getenv("PAYMENT_WEBHOOK_SECRET"))

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	interval := 15 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("AUTO_RELEASE_INTERVAL_MINUTES")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			interval = time.Duration(n) * time.Minute
		}
	}

	return Env{
		AppAddr:             appAddr,
		GinMode:             strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBUser:              dbUser,
		DBPass:              dbPass,
		DBHost:              dbHost,
		DBName:              dbName,
		JWTSecret:           jwtSecret,
		WebhookSecret:       webhookSecret,
		CORSAllowedOrigins:  origins,
		AutoReleaseInterval: interval,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
