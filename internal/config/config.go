package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	URL  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MaxHearts          int
	HeartRefillMinutes int
}

// LoadConfig charge la configuration depuis les variables d'environnement (.env optionnel)
func LoadConfig() (*Config, error) {
	// .env facultatif: en production les variables viennent de l'environnement
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "3000"),
		URL:  getEnv("URL", "http://localhost:3000"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "match3"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		MaxHearts:          getEnvInt("MAX_HEARTS", 3),
		HeartRefillMinutes: getEnvInt("HEART_REFILL_MINUTES", 30),
	}

	if cfg.DBUser == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("missing database configuration (DB_USER, DB_NAME)")
	}

	return cfg, nil
}

// HeartRefillInterval renvoie la durée d'une tranche de régénération de cœur.
func (c *Config) HeartRefillInterval() time.Duration {
	return time.Duration(c.HeartRefillMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
