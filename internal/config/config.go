package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort        int    `mapstructure:"APP_PORT"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	ProviderURL    string `mapstructure:"PROVIDER_URL"`
	ProviderAPIKey string `mapstructure:"PROVIDER_API_KEY"`
	ProviderModel  string `mapstructure:"PROVIDER_MODEL"`
	SummaryModel   string `mapstructure:"SUMMARY_MODEL"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 3000)
	viper.SetDefault("DATABASE_PATH", "/data/chat.db")
	viper.SetDefault("PROVIDER_URL", "https://api.openai.com/v1")
	viper.SetDefault("PROVIDER_API_KEY", "")
	viper.SetDefault("PROVIDER_MODEL", "gpt-4o-mini")
	viper.SetDefault("SUMMARY_MODEL", "gpt-4o-mini")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing .env file is fine; environment variables alone are a valid
	// configuration source.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
