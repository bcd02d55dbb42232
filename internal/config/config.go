package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	JWTSecret       string
	MongoURI        string
	DBName          string
	SkipAuth        bool
	Environment     string
	AppId           string
	RecountSchedule string // Cron expression for the record-count reconciliation job
	MaxUploadRows   int    // Upper bound on rows accepted per import session
	PublishTimeout  int    // Seconds allowed for the publish transaction
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "go-erp"),
		SkipAuth:        getEnv("SKIP_AUTH", "false") == "true",
		Environment:     getEnv("ENVIRONMENT", "development"),
		AppId:           getEnv("APP_ID", "go-erp"),
		RecountSchedule: getEnv("RECOUNT_SCHEDULE", "30 2 * * *"),
		MaxUploadRows:   getEnvInt("MAX_UPLOAD_ROWS", 5000),
		PublishTimeout:  getEnvInt("PUBLISH_TIMEOUT", 30),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
