// Package config reads the server configuration from the environment.
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
	log "github.com/sirupsen/logrus"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	// DefaultJWTSecret is only acceptable for local development.
	DefaultJWTSecret = "default-secret-key-change-in-production"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port         string
	Store        string
	MongoURI     string
	MongoDB      string
	WriteTimeout time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	MQTTBroker   string
	MQTTClientID string

	TrackDomain string
	// RateLimit is the number of public requests allowed per client per minute.
	RateLimit int

	LogLevel  string
	LogFormat string

	SuperAdminEmail    string
	SuperAdminPassword string
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:               or(getenv("PORT"), "8080"),
		Store:              strings.ToLower(or(getenv("STORE"), StoreMongo)),
		MongoURI:           or(getenv("MONGO_URI"), "mongodb://localhost:27017"),
		MongoDB:            or(getenv("MONGO_DB"), "jaybesin"),
		JWTSecret:          or(getenv("JWT_SECRET"), DefaultJWTSecret),
		KafkaTopic:         or(getenv("KAFKA_TOPIC"), "notification-jobs"),
		MQTTBroker:         strings.TrimSpace(getenv("MQTT_BROKER")),
		MQTTClientID:       or(getenv("MQTT_CLIENT_ID"), "jaybesin-console"),
		TrackDomain:        strings.TrimSpace(getenv("TRACK_DOMAIN")),
		LogLevel:           or(getenv("LOG_LEVEL"), "info"),
		LogFormat:          or(getenv("LOG_FORMAT"), "text"),
		SuperAdminEmail:    strings.TrimSpace(getenv("SUPER_ADMIN_EMAIL")),
		SuperAdminPassword: getenv("SUPER_ADMIN_PASSWORD"),
	}

	for _, b := range strings.Split(getenv("KAFKA_BROKER"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	var err error
	if cfg.WriteTimeout, err = duration(getenv, "WRITE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.JWTExpiry, err = duration(getenv, "JWT_EXPIRY", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = integer(getenv, "RATE_LIMIT", 120); err != nil {
		return Config{}, err
	}

	if cfg.Store != StoreMongo && cfg.Store != StoreMemory {
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreMemory, cfg.Store)
	}
	return cfg, nil
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logger.
func (c Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func or(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}
