/**
 * @description
 * This package handles configuration management for the service. It uses the
 * Viper library to read configuration from environment variables (and an
 * optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */
package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	TossSecretKey             string `mapstructure:"TOSS_SECRET_KEY"`
	TossClientKey             string `mapstructure:"TOSS_CLIENT_KEY"`
	TossAPIBaseURL            string `mapstructure:"TOSS_API_BASE_URL"`
	SupabaseURL               string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey           string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret         string `mapstructure:"SUPABASE_JWT_SECRET"`
	SiteBaseURL               string `mapstructure:"SITE_BASE_URL"`
	PostsDir                  string `mapstructure:"POSTS_DIR"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	PaymentRateLimitPerMinute int    `mapstructure:"PAYMENT_RATE_LIMIT_PER_MINUTE"`
	RecurringBillingSchedule  string `mapstructure:"RECURRING_BILLING_SCHEDULE"`
}

// HasSupabase reports whether the backend auth service is configured. When
// it is not, the session middleware passes requests through unauthenticated
// instead of failing hard.
func (c Config) HasSupabase() bool {
	return strings.TrimSpace(c.SupabaseURL) != "" && strings.TrimSpace(c.SupabaseJWTSecret) != ""
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TOSS_API_BASE_URL", "https://api.tosspayments.com")
	viper.SetDefault("SITE_BASE_URL", "https://chighim-vibecodeing.vercel.app")
	viper.SetDefault("POSTS_DIR", "content/posts")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "vibecoding:rate_limit")
	viper.SetDefault("PAYMENT_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("RECURRING_BILLING_SCHEDULE", "5 0 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("TOSS_SECRET_KEY")
	_ = viper.BindEnv("TOSS_CLIENT_KEY", "TOSS_CLIENT_KEY", "NEXT_PUBLIC_TOSS_CLIENT_KEY")
	_ = viper.BindEnv("TOSS_API_BASE_URL")
	_ = viper.BindEnv("SUPABASE_URL", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	_ = viper.BindEnv("SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY")
	_ = viper.BindEnv("SUPABASE_JWT_SECRET")
	_ = viper.BindEnv("SITE_BASE_URL", "SITE_BASE_URL", "NEXT_PUBLIC_SITE_URL")
	_ = viper.BindEnv("POSTS_DIR")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("PAYMENT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RECURRING_BILLING_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.SupabaseURL = strings.TrimRight(strings.TrimSpace(config.SupabaseURL), "/")
	config.SiteBaseURL = strings.TrimRight(strings.TrimSpace(config.SiteBaseURL), "/")
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "vibecoding:rate_limit"
	}
	if config.PaymentRateLimitPerMinute <= 0 {
		config.PaymentRateLimitPerMinute = 60
	}
	if strings.TrimSpace(config.RecurringBillingSchedule) == "" {
		config.RecurringBillingSchedule = "5 0 * * *"
	}

	return
}
