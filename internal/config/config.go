// Package config loads Docuvox settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Gemini
	GeminiAPIKey string
	Model        string
	LiveModel    string
	Voice        string
	Language     string

	// Storage
	Store       string // "file" or "postgres"
	DataDir     string
	DatabaseURL string

	// Audio
	AudioBackend string // "ffmpeg" or "portaudio"

	// Live session
	ConnectTimeout time.Duration

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file found, using environment variables only")
	}

	cfg := &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        getEnvOrDefault("DOCUVOX_MODEL", "gemini-2.5-flash"),
		LiveModel:    getEnvOrDefault("DOCUVOX_LIVE_MODEL", "models/gemini-2.5-flash-native-audio-preview-09-2025"),
		Voice:        getEnvOrDefault("DOCUVOX_VOICE", "Orus"),
		Language:     getEnvOrDefault("DOCUVOX_LANGUAGE", "en-US"),

		Store:       getEnvOrDefault("DOCUVOX_STORE", "file"),
		DataDir:     getEnvOrDefault("DOCUVOX_DATA_DIR", "./data"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		AudioBackend: getEnvOrDefault("AUDIO_BACKEND", "ffmpeg"),

		ConnectTimeout: time.Duration(getIntEnvOrDefault("LIVE_CONNECT_TIMEOUT_MS", 15000)) * time.Millisecond,

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Store != "file" && c.Store != "postgres" {
		return fmt.Errorf("DOCUVOX_STORE must be 'file' or 'postgres'")
	}
	if c.Store == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when DOCUVOX_STORE is 'postgres'")
	}
	if c.AudioBackend != "ffmpeg" && c.AudioBackend != "portaudio" {
		return fmt.Errorf("AUDIO_BACKEND must be 'ffmpeg' or 'portaudio'")
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("LIVE_CONNECT_TIMEOUT_MS must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return parsed
}
