package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	JWTSecret         string
	DefaultFeePercent float64
	DefaultTaxPercent float64
}

var dotenvOnce sync.Once

func loadDotenv() {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	})
}

// DatabaseURL loads the environment and returns the database connection
// string, for commands that only touch the store.
func DatabaseURL() (string, error) {
	loadDotenv()
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return "", fmt.Errorf("DB_URL is required")
	}
	return dbURL, nil
}

func LoadConfig() (*Config, error) {
	loadDotenv()

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	feePercent, err := getEnvPercent("DEFAULT_PLATFORM_FEE_PERCENT", 10)
	if err != nil {
		return nil, err
	}
	taxPercent, err := getEnvPercent("DEFAULT_TAX_PERCENT", 18)
	if err != nil {
		return nil, err
	}

	maxConns, err := getEnvInt32("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt32("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	if minConns > maxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DBUrl:             getEnv("DB_URL", ""),
		DBMaxConns:        maxConns,
		DBMinConns:        minConns,
		JWTSecret:         jwtSecret,
		DefaultFeePercent: feePercent,
		DefaultTaxPercent: taxPercent,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) (int32, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 32)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int32(parsed), nil
}

func getEnvPercent(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if parsed < 0 || parsed > 100 {
		return 0, fmt.Errorf("%s must be between 0 and 100", key)
	}
	return parsed, nil
}
