package config

import (
	"fmt"
	"os"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port         string `mapstructure:"port"`
		Env          string `mapstructure:"env"`
		BaseURL      string `mapstructure:"baseUrl"`
		ReadTimeout  int    `mapstructure:"readTimeout"`
		WriteTimeout int    `mapstructure:"writeTimeout"`
	} `mapstructure:"app"`
	Database struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Stripe struct {
		APIKey         string `mapstructure:"apiKey"`
		PublishableKey string `mapstructure:"publishableKey"`
		WebhookSecret  string `mapstructure:"webhookSecret"`
		PriceID        string `mapstructure:"priceId"`
	} `mapstructure:"stripe"`
	Auth struct {
		JWTSecret string `mapstructure:"jwtSecret"`
	} `mapstructure:"auth"`
}

// LoadConfig загружает конфигурацию из файла или переменных окружения.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load(path)
		if err != nil {
			return nil, err
		}
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv() // Чтение переменных окружения

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate проверяет наличие обязательных значений для работы биллинга.
func (c *Config) Validate() error {
	if c.Stripe.APIKey == "" {
		return fmt.Errorf("%w: stripe API key is not set", domain.ErrConfiguration)
	}
	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("%w: stripe webhook secret is not set", domain.ErrConfiguration)
	}
	if c.Stripe.PriceID == "" {
		return fmt.Errorf("%w: stripe price id is not set", domain.ErrConfiguration)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database DSN is not set", domain.ErrConfiguration)
	}
	return nil
}
