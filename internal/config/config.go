package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	ServerPort string `mapstructure:"SERVER_PORT"`
	JWTSecret  string `mapstructure:"JWT_SECRET"`

	// Operator credential for the admin API. The hash is a bcrypt hash;
	// leaving it empty disables the admin login.
	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	BotToken      string `mapstructure:"DISCORD_BOT_TOKEN"`
	GuildID       string `mapstructure:"DISCORD_GUILD_ID"`
	WeatherAPIKey string `mapstructure:"WEATHER_API_KEY"`

	RideOptionsPath string `mapstructure:"RIDE_OPTIONS_PATH"`
}

func Load() *Config {
	// .env is for development; real deployments set the environment.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "ridemaker")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("JWT_SECRET", "super-secret-key-change-me")
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("DISCORD_BOT_TOKEN", "")
	viper.SetDefault("DISCORD_GUILD_ID", "")
	viper.SetDefault("WEATHER_API_KEY", "")
	viper.SetDefault("RIDE_OPTIONS_PATH", "ride-options.yaml")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatal().Err(err).Msg("could not decode configuration")
	}
	return &cfg
}
