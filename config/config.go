package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr         string `mapstructure:"HTTP_ADDR"`
	DBURL            string `mapstructure:"DB_URL"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	WebhookPublicKey string `mapstructure:"WEBHOOK_PUBLIC_KEY"`
	ProviderBaseURL  string `mapstructure:"PROVIDER_BASE_URL"`
	ProviderAPIKey   string `mapstructure:"PROVIDER_API_KEY"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	SettlementAsset  string `mapstructure:"SETTLEMENT_ASSET"`
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	viper.AddConfigPath(filepath.Dir(absPath))
	viper.SetConfigName(filepath.Base(absPath))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SETTLEMENT_ASSET", "USDT")

	if err := viper.ReadInConfig(); err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}
