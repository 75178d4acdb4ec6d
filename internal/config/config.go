// Package config содержит логику чтения конфигурации сервиса доставки.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса доставки.
type Config struct {
	RunAddress         string `env:"RUN_ADDRESS"`
	DatabaseURI        string `env:"DATABASE_URI"`
	RedisAddress       string `env:"REDIS_ADDRESS"`
	AdsServiceAddress  string `env:"ADS_SERVICE_ADDRESS"`
	AuthSecret         string `env:"AUTH_SECRET"`
	SettlementTimezone string `env:"SETTLEMENT_TIMEZONE"`
	ReferralBonus      int64  `env:"REFERRAL_BONUS_POINTS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddress := cfg.RedisAddress
	envAdsAddress := cfg.AdsServiceAddress
	envAuthSecret := cfg.AuthSecret
	envTimezone := cfg.SettlementTimezone
	envReferralBonus := cfg.ReferralBonus

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "redis", "", "redis address for settlement close lock")
	flag.StringVar(&cfg.AdsServiceAddress, "ads", "", "ads service address")
	flag.StringVar(&cfg.AuthSecret, "secret", "", "secret key for auth tokens")
	flag.StringVar(&cfg.SettlementTimezone, "tz", "Asia/Riyadh", "timezone of the settlement week")
	flag.Int64Var(&cfg.ReferralBonus, "bonus", 2, "referral bonus points")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envAdsAddress != "" {
		cfg.AdsServiceAddress = envAdsAddress
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envTimezone != "" {
		cfg.SettlementTimezone = envTimezone
	}
	if envReferralBonus != 0 {
		cfg.ReferralBonus = envReferralBonus
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SettlementTimezone == "" {
		cfg.SettlementTimezone = "Asia/Riyadh"
	}
	if cfg.ReferralBonus <= 0 {
		cfg.ReferralBonus = 2
	}

	return cfg, nil
}
