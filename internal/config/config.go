package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	Port     int
	LogLevel string

	DatabaseURL string

	SecretKey  []byte
	BcryptCost int

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string

	MediaURL          string
	MediaAccessToken  string
	PermittedReferers []string
}

// Load reads configuration from the environment, optionally seeded from a
// local .env file.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		Port:     EnvIntDefault("SERVER_PORT", 8080),
		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SecretKey:  []byte(os.Getenv("SECRET_KEY")),
		BcryptCost: EnvIntDefault("BCRYPT_COST", 0),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		MediaURL:          os.Getenv("REMOTE_SERVER_URL"),
		MediaAccessToken:  os.Getenv("MEDIA_ACCESS_TOKEN"),
		PermittedReferers: CSV(os.Getenv("PERMITTED_REFERERS")),
	}
}

// MustLoad is Load plus fail-fast checks for the settings the service cannot
// run without.
func MustLoad() *Config {
	cfg := Load()
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.SecretKey, "SECRET_KEY")
	return cfg
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
