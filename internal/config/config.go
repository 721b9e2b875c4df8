package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	ListenAddr    string
	PublicURL     string
	StorageDir    string
	StorageSecret string
	LogLevel      string
	LogFile       string
}

func Load() *Config {
	// A missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "tasknot"),
		DBPassword:    getEnv("DB_PASSWORD", "tasknot"),
		DBName:        getEnv("DB_NAME", "tasknot"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		PublicURL:     getEnv("PUBLIC_URL", "http://localhost:8080"),
		StorageDir:    getEnv("STORAGE_DIR", "./data/objects"),
		StorageSecret: getEnv("STORAGE_SECRET", "default-signing-key-change-me"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
