package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(newViper(map[string]any{"DATABASE_URL": "postgres://localhost/lottery"}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.ContextTimeout)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Equal(t, LotteryConfig{AutoReplaceOnDecline: true, AutoReplaceOnCancel: true}, cfg.Lottery)
	assert.Equal(t, RetryConfig{MaxAttempts: 3, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}, cfg.Retry)
	assert.Equal(t, NotifyConfig{Workers: 4, QueueSize: 256}, cfg.Notify)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg := FromViper(newViper(map[string]any{
		"STORE":                               "Memory",
		"CORS_ALLOWED_ORIGINS":                "https://a.example, ,https://b.example",
		"LOTTERY_SEED":                        "42",
		"LOTTERY_AUTO_REPLACE_ON_DECLINE":     "false",
		"LOTTERY_AUTO_REPLACE_ON_BULK_CANCEL": "true",
		"RETRY_INITIAL_INTERVAL":              "10ms",
		"EMAIL_PROVIDER":                      "SES",
		"EMAIL_FROM_ADDRESS":                  "lottery@example.com",
	}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, uint64(42), cfg.Lottery.Seed)
	assert.False(t, cfg.Lottery.AutoReplaceOnDecline)
	assert.True(t, cfg.Lottery.AutoReplaceOnBulkCancel)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, "ses", cfg.Email.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{name: "postgres without url", values: map[string]any{}, wantErr: "DATABASE_URL"},
		{name: "unknown store", values: map[string]any{"STORE": "redis"}, wantErr: "STORE must be"},
		{name: "production without secret", values: map[string]any{"STORE": "memory", "GO_ENV": "production"}, wantErr: "JWT_SECRET"},
		{name: "ses without sender", values: map[string]any{"STORE": "memory", "EMAIL_PROVIDER": "ses"}, wantErr: "EMAIL_FROM_ADDRESS"},
		{name: "no attempts", values: map[string]any{"STORE": "memory", "RETRY_MAX_ATTEMPTS": 0}, wantErr: "RETRY_MAX_ATTEMPTS"},
		{name: "inverted intervals", values: map[string]any{"STORE": "memory", "RETRY_MAX_INTERVAL": "1ms"}, wantErr: "RETRY_INITIAL_INTERVAL"},
		{name: "no workers", values: map[string]any{"STORE": "memory", "NOTIFY_WORKERS": 0}, wantErr: "NOTIFY_WORKERS"},
		{name: "memory needs nothing else", values: map[string]any{"STORE": "memory"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromViper(newViper(tt.values)).Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("production", "warn", &buf).Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger("production", "warn", &buf).Warn("shown", "event_id", "ev-1")
	assert.Contains(t, buf.String(), `"event_id":"ev-1"`)

	buf.Reset()
	NewLogger("development", "", &buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
