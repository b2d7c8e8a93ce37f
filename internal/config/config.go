// Package config loads process-wide settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the settings main needs to assemble the application.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file.
	DBPath string
	// DatabaseURL selects Postgres instead of SQLite when set.
	DatabaseURL string
	// Seed fills an empty SQLite database with demo rows.
	Seed bool

	CameraID int
	Width    int
	Height   int
	FPS      int

	// WebDir holds static viewer files; empty or missing serves none.
	WebDir string
	Tray   bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:     "127.0.0.1:8080",
		DBPath:   defaultDBPath(),
		Seed:     true,
		CameraID: 0,
		Width:    1280,
		Height:   720,
		FPS:      30,
		WebDir:   "web",
		Tray:     false,
	}
}

// Load returns Default overridden by PINCHVIZ_* variables and DATABASE_URL.
func Load() Config {
	d := Default()
	return Config{
		Addr:        getEnv("PINCHVIZ_ADDR", d.Addr),
		DBPath:      getEnv("PINCHVIZ_DB", d.DBPath),
		DatabaseURL: getEnv("DATABASE_URL", d.DatabaseURL),
		Seed:        getEnvAsBool("PINCHVIZ_SEED", d.Seed),
		CameraID:    getEnvAsInt("PINCHVIZ_CAMERA", d.CameraID),
		Width:       getEnvAsInt("PINCHVIZ_WIDTH", d.Width),
		Height:      getEnvAsInt("PINCHVIZ_HEIGHT", d.Height),
		FPS:         getEnvAsInt("PINCHVIZ_FPS", d.FPS),
		WebDir:      getEnv("PINCHVIZ_WEB", d.WebDir),
		Tray:        getEnvAsBool("PINCHVIZ_TRAY", d.Tray),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pinchviz.db"
	}
	return filepath.Join(home, ".pinchviz", "pinchviz.db")
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
