package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr string // TCP address the chat protocol listens on
	TLSCert    string // Path to the TLS certificate; empty means plaintext
	TLSKey     string // Path to the TLS key; empty means plaintext

	HTTPAddr string // Address for the status API and WebSocket gateway; empty disables it

	DatabasePath string
	UploadsDir   string // Base path for received file bodies

	HistoryLimit int // Messages replayed on join

	JWTSecret string

	RetentionDays     int    // Prune messages/files older than this; 0 disables
	RetentionSchedule string // Cron expression for the retention sweep
}

// Load loads configuration from environment variables or sets defaults.
// A .env file is honored in development if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	historyLimit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", "100"))
	if err != nil {
		return nil, err
	}
	retentionDays, err := strconv.Atoi(getEnv("RETENTION_DAYS", "0"))
	if err != nil {
		return nil, err
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Sessions can still resume within this process lifetime
		secret = randomSecret()
	}

	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8765"),
		TLSCert:           os.Getenv("TLS_CERT"),
		TLSKey:            os.Getenv("TLS_KEY"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./chatrelay.db"),
		UploadsDir:        getEnv("UPLOADS_DIR", "./uploads"),
		HistoryLimit:      historyLimit,
		JWTSecret:         secret,
		RetentionDays:     retentionDays,
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
	}, nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
