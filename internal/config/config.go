package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host                  string // Listen address; loopback unless set
	Port                  int
	Password              string // Empty disables the login cookie check
	CameraDevice          int
	TickInterval          time.Duration
	ModelDirectory        string
	ModelPath             string // Loaded at startup when set
	LabelsPath            string
	DetectionThreshold    float64
	NMSThreshold          float64
	ConfidenceFloor       float64 // Minimum confidence recorded in the session table
	InputSize             int
	JPEGQuality           int
	DatabasePath          string
	SnapshotDirectory     string
	SnapshotLimit         int
	SnapshotFlushInterval time.Duration
	ExportDirectory       string
	LogDirectory          string
	StatusHistory         int
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Host:                  getEnv("HOST", "127.0.0.1"),
		Port:                  getEnvAsInt("PORT", 8080),
		Password:              getEnv("PASSWORD", ""),
		CameraDevice:          getEnvAsInt("CAMERA_DEVICE", 0),
		TickInterval:          getEnvAsDuration("TICK_INTERVAL_MS", 30*time.Millisecond, time.Millisecond),
		ModelDirectory:        getEnv("MODEL_DIR", filepath.Join(".", "models")),
		ModelPath:             getEnv("MODEL_PATH", ""),
		LabelsPath:            getEnv("LABELS_PATH", ""),
		DetectionThreshold:    getEnvAsFloat("DETECTION_THRESHOLD", 0.25),
		NMSThreshold:          getEnvAsFloat("NMS_THRESHOLD", 0.7),
		ConfidenceFloor:       getEnvAsFloat("CONFIDENCE_FLOOR", 0),
		InputSize:             getEnvAsInt("INPUT_SIZE", 640),
		JPEGQuality:           getEnvAsInt("JPEG_QUALITY", 80),
		DatabasePath:          getEnv("DB_PATH", filepath.Join(".", "data", "sessions.db")),
		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotLimit:         getEnvAsInt("SNAPSHOT_LIMIT", 20),
		SnapshotFlushInterval: getEnvAsDuration("SNAPSHOT_FLUSH_INTERVAL", 30*time.Second, time.Second),
		ExportDirectory:       getEnv("EXPORT_DIR", filepath.Join(".", "exports")),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StatusHistory:         getEnvAsInt("STATUS_HISTORY", 500),
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads an integer count of unit. Non-positive values fall back to the default.
func getEnvAsDuration(key string, defaultValue, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return time.Duration(intValue) * unit
		}
	}
	return defaultValue
}
