// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	JWTSecretKey string
	AdminEmail   string
	Environment  string

	// Store
	DBDriver    string // "sqlite" or "postgres"
	DatabaseURL string

	// Optional infrastructure. Empty values select the in-process fallback.
	RedisURL       string
	KafkaBrokers   string
	KafkaTopic     string
	KafkaAuthTopic string
	OTELEndpoint   string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string

	TypingTimeout    time.Duration
	MessageRateLimit int
	AllowedOrigins   []string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		JWTSecretKey:     getEnv("JWT_SECRET_KEY", ""),
		AdminEmail:       strings.ToLower(getEnv("ADMIN_EMAIL", "")),
		Environment:      env,
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:      getEnv("DATABASE_URL", "lostfound.db"),
		RedisURL:         getEnv("REDIS_URL", ""),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "messages.new"),
		KafkaAuthTopic:   getEnv("KAFKA_AUTH_TOPIC", "auth.codes"),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Bucket:         getEnv("S3_BUCKET", "item-images"),
		S3UseSSL:         getEnvAsBool("S3_USE_SSL", false),
		S3PublicURL:      getEnv("S3_PUBLIC_URL", ""),
		TypingTimeout:    time.Duration(getEnvAsInt("TYPING_TIMEOUT_MS", 1000)) * time.Millisecond,
		MessageRateLimit: getEnvAsInt("MESSAGE_RATE_LIMIT", 30),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		if missing := cfg.missingProductionVars(); len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

func (c *Config) missingProductionVars() []string {
	missing := []string{}
	if c.JWTSecretKey == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.S3Endpoint != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		missing = append(missing, "S3_ACCESS_KEY/S3_SECRET_KEY")
	}
	return missing
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as bool. Using default value.", key)
		return defaultValue
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
