package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/valai/valai-api/internal/models"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Auth     AuthConfig     `json:"auth"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Quota    QuotaConfig    `json:"quota"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type RedisConfig struct {
	// Empty Addr selects the in-memory rate limiter backend
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AuthConfig struct {
	JWTSecret   string `json:"-"` // env only, never from file
	ExpiryHours int    `json:"expiry_hours"`
}

type OpenAIConfig struct {
	APIKey string `json:"-"` // env only, never from file
	Model  string `json:"model"`
}

type QuotaConfig struct {
	// Monthly token limits per subscription tier
	TierLimits map[models.SubscriptionTier]int `json:"tier_limits"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path: "valai.db",
		},
		Auth: AuthConfig{
			ExpiryHours: 24,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-3.5-turbo",
		},
		Quota: QuotaConfig{
			TierLimits: map[models.SubscriptionTier]int{
				models.TierFree:     30000,
				models.TierStandard: 300000,
				models.TierPro:      1000000,
			},
		},
	}
}

// Reads the config file (optional), applies environment overrides and
// validates the result
func Load(path string) (*Config, error) {
	config := defaults()

	file, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Server.Environment = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Environment == "production" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	// A zero or negative tier limit is a configuration error, not a
	// runtime divide-by-zero waiting to happen
	if len(c.Quota.TierLimits) == 0 {
		return fmt.Errorf("tier_limits must not be empty")
	}
	for tier, limit := range c.Quota.TierLimits {
		if !tier.Valid() {
			return fmt.Errorf("unknown subscription tier %q in tier_limits", tier)
		}
		if limit <= 0 {
			return fmt.Errorf("tier %q has non-positive token limit %d", tier, limit)
		}
	}

	return nil
}

// Monthly token limit for the given tier; unknown tiers get the free limit
func (c *Config) TierLimit(tier models.SubscriptionTier) int {
	if limit, ok := c.Quota.TierLimits[tier]; ok {
		return limit
	}
	return c.Quota.TierLimits[models.TierFree]
}
