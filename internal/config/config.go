// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	License            string `mapstructure:"license"`
	QuoteAPIURL        string `mapstructure:"quote_api_url"`
	RPCURL             string `mapstructure:"rpc_url"`
	TelegramBotToken   string `mapstructure:"telegram_bot_token"`
	ChannelsFile       string `mapstructure:"channels_file"`
	DataDir            string `mapstructure:"data_dir"`
	MonitorIntervalSec int    `mapstructure:"monitor_interval_sec"`
	MonitorMaxMinutes  int    `mapstructure:"monitor_max_minutes"`
	HTTPTimeoutSec     int    `mapstructure:"http_timeout_sec"`
	DebugLogging       bool   `mapstructure:"debug_logging"`
}

const (
	DefaultQuoteAPIURL        = "https://quote-api.jup.ag/v6"
	DefaultRPCURL             = "https://api.mainnet-beta.solana.com"
	DefaultChannelsFile       = "channels.yml"
	DefaultDataDir            = "data"
	DefaultMonitorIntervalSec = 60
	DefaultMonitorMaxMinutes  = 1440 // 24 hours
	DefaultHTTPTimeoutSec     = 30
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"quote_api_url":        DefaultQuoteAPIURL,
		"rpc_url":              DefaultRPCURL,
		"channels_file":        DefaultChannelsFile,
		"data_dir":             DefaultDataDir,
		"monitor_interval_sec": DefaultMonitorIntervalSec,
		"monitor_max_minutes":  DefaultMonitorMaxMinutes,
		"http_timeout_sec":     DefaultHTTPTimeoutSec,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.License == "" {
		return errors.New("missing license in configuration")
	}
	if cfg.TelegramBotToken == "" {
		return errors.New("missing telegram_bot_token in configuration")
	}
	if err := validateURL(cfg.QuoteAPIURL, "http"); err != nil {
		return errors.New("invalid quote API URL")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL")
	}
	if cfg.MonitorIntervalSec <= 0 {
		return errors.New("invalid monitor_interval_sec")
	}
	if cfg.MonitorMaxMinutes <= 0 {
		return errors.New("invalid monitor_max_minutes")
	}
	if cfg.HTTPTimeoutSec <= 0 {
		return errors.New("invalid http_timeout_sec")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("SNIPER_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envLicense := v.GetString("LICENSE"); envLicense != "" {
		cfg.License = envLicense
	}
	if envToken := v.GetString("TELEGRAM_BOT_TOKEN"); envToken != "" {
		cfg.TelegramBotToken = envToken
	}
}

// MonitorInterval returns the poll interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSec) * time.Second
}

// MonitorMaxDuration returns the maximum monitoring lifetime.
func (c *Config) MonitorMaxDuration() time.Duration {
	return time.Duration(c.MonitorMaxMinutes) * time.Minute
}

// HTTPTimeout returns the swap client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}
