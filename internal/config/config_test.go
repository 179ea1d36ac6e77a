package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validConfigJSON = `{
    "license": "test-license-key-0001",
    "quote_api_url": "https://quote-api.jup.ag/v6",
    "rpc_url": "https://api.mainnet-beta.solana.com",
    "telegram_bot_token": "123456:test-token",
    "channels_file": "channels.yml",
    "data_dir": "data",
    "monitor_interval_sec": 30,
    "monitor_max_minutes": 720,
    "debug_logging": true
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, "test-license-key-0001", cfg.License)
	assert.Equal(t, "123456:test-token", cfg.TelegramBotToken)
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval())
	assert.Equal(t, 12*time.Hour, cfg.MonitorMaxDuration())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.True(t, cfg.DebugLogging)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
        "license": "test-license-key-0001",
        "telegram_bot_token": "123456:test-token"
    }`))
	require.NoError(t, err)

	assert.Equal(t, DefaultQuoteAPIURL, cfg.QuoteAPIURL)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, DefaultChannelsFile, cfg.ChannelsFile)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, 60*time.Second, cfg.MonitorInterval())
	assert.Equal(t, 24*time.Hour, cfg.MonitorMaxDuration())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing license", `{"telegram_bot_token": "t"}`},
		{"missing bot token", `{"license": "k"}`},
		{"bad quote url", `{"license": "k", "telegram_bot_token": "t", "quote_api_url": "ftp://nope"}`},
		{"bad interval", `{"license": "k", "telegram_bot_token": "t", "monitor_interval_sec": 0}`},
		{"bad max duration", `{"license": "k", "telegram_bot_token": "t", "monitor_max_minutes": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SNIPER_BOT_LICENSE", "env-license-key-0001")
	t.Setenv("SNIPER_BOT_TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := LoadConfig(writeConfig(t, `{
        "license": "file-license-key-0001",
        "telegram_bot_token": "file-token"
    }`))
	require.NoError(t, err)

	assert.Equal(t, "env-license-key-0001", cfg.License)
	assert.Equal(t, "env-token", cfg.TelegramBotToken)
}
