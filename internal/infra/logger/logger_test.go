package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		debugOn   bool
		expectErr bool
	}{
		{name: "development", cfg: Config{Development: true}, debugOn: true},
		{name: "production", cfg: Config{}, debugOn: false},
		{name: "explicit level", cfg: Config{Level: "WARN"}, debugOn: false},
		{name: "console encoding", cfg: Config{Development: true, Encoding: "console", Service: "trackdesk"}, debugOn: true},
		{name: "bad level", cfg: Config{Level: "loud"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.debugOn, l.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")

	cfg := FromEnv("trackdesk")
	assert.False(t, cfg.Development)
	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "trackdesk", cfg.Service)
}

func TestL_FallsBackWithoutInit(t *testing.T) {
	assert.NotNil(t, L())
	assert.Same(t, L(), L())
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel(" Debug ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = parseLevel("chatty")
	assert.Error(t, err)
}
