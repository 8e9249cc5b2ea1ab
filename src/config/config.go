package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	DomainConfigPath   string
	NBPBaseURL         string
	NBPTimeout         time.Duration
	MaxUploadSizeBytes int64
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	nbpTimeoutStr := getEnv("NBP_TIMEOUT", "5s")
	nbpTimeout, err := time.ParseDuration(nbpTimeoutStr)
	if err != nil {
		log.Printf("WARNING: Invalid NBP_TIMEOUT format '%s'. Using default 5s. Error: %v", nbpTimeoutStr, err)
		nbpTimeout = 5 * time.Second
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./fleetledger.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DomainConfigPath:   getEnv("DOMAIN_CONFIG_PATH", "data/fleet.yaml"),
		NBPBaseURL:         getEnv("NBP_BASE_URL", "http://api.nbp.pl"),
		NBPTimeout:         nbpTimeout,
		MaxUploadSizeBytes: maxUploadSizeBytes,
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, DomainConfig=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DomainConfigPath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}
