package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dsolovyev/neonwear/internal/models"
)

type Config struct {
	HTTP_ADDR   string
	LOG_LEVEL   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	JWT_SECRET     string
	REFRESH_SECRET string
	KAFKA_ADDRESS  string

	// PAYMENT_MODE is "demo" or "gateway". In gateway mode checkout creates a
	// hosted session with the external processor and orders complete via webhook.
	PAYMENT_MODE           string
	PAYMENT_GATEWAY_URL    string
	PAYMENT_API_KEY        string
	PAYMENT_WEBHOOK_SECRET string
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:   getenvDefault("HTTP_ADDR", ":8080"),
		LOG_LEVEL:   getenvDefault("LOG_LEVEL", "info"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),
		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),
		ES_INDEX:    getenvDefault("ES_INDEX", "product"),

		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),

		PAYMENT_MODE:           getenvDefault("PAYMENT_MODE", "demo"),
		PAYMENT_GATEWAY_URL:    os.Getenv("PAYMENT_GATEWAY_URL"),
		PAYMENT_API_KEY:        os.Getenv("PAYMENT_API_KEY"),
		PAYMENT_WEBHOOK_SECRET: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
	}

	if config.JWT_SECRET == "" || config.REFRESH_SECRET == "" {
		return nil, fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
	}
	if config.PAYMENT_MODE == "gateway" && (config.PAYMENT_GATEWAY_URL == "" || config.PAYMENT_WEBHOOK_SECRET == "") {
		return nil, fmt.Errorf("gateway payment mode requires PAYMENT_GATEWAY_URL and PAYMENT_WEBHOOK_SECRET")
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
}
