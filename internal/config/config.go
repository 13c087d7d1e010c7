package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the content workflow service.
// Values come from the environment (optionally via .env), with sane
// defaults for local development.
type Config struct {
	DBUsername string `mapstructure:"DB_USERNAME"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBName     string `mapstructure:"DB_NAME"`
	Port       string `mapstructure:"PORT"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"` // empty disables the Redis sink
}

func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("DB_USERNAME", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "fcbb_content")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REDIS_ADDR", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// DBConnStr builds the postgres connection string.
func (c Config) DBConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
