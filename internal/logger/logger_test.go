package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log := New()
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel zerolog.Level
		wantJSON  bool
		wantErr   bool
	}{
		{name: "defaults", cfg: Config{}, wantLevel: zerolog.InfoLevel},
		{name: "json debug", cfg: Config{Level: "debug", Format: "json"}, wantLevel: zerolog.DebugLevel, wantJSON: true},
		{name: "upper case", cfg: Config{Level: "WARN", Format: "CONSOLE"}, wantLevel: zerolog.WarnLevel},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log, err := NewFromConfig(tt.cfg, buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, log.GetLevel())

			log.WithLevel(tt.wantLevel).Msg("hello")
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"message":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "hello")
				assert.NotContains(t, buf.String(), `"message"`)
			}
		})
	}
}

func TestNewFromConfig_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewFromConfig(Config{Level: "error", Format: "json"}, buf)
	require.NoError(t, err)

	log.Info().Msg("quiet")

	assert.Empty(t, buf.String())
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	retrieved := FromContext(ctx)
	retrieved.Info().Msg("test")

	assert.NotZero(t, buf.Len())
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestFromContextOr(t *testing.T) {
	ctxBuf := &bytes.Buffer{}
	fallbackBuf := &bytes.Buffer{}
	fallback := NewWithWriter(fallbackBuf)

	log := FromContextOr(context.Background(), fallback)
	log.Info().Msg("fallback")
	assert.Contains(t, fallbackBuf.String(), "fallback")

	ctx := WithContext(context.Background(), NewWithWriter(ctxBuf))
	log = FromContextOr(ctx, fallback)
	log.Info().Msg("from context")
	assert.Contains(t, ctxBuf.String(), "from context")
	assert.NotContains(t, fallbackBuf.String(), "from context")
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]any{
		"pending_id": "abc",
		"action":     "show_balance",
	})

	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), `"pending_id":"abc"`)
	assert.Contains(t, buf.String(), `"action":"show_balance"`)
}

func TestWithUser(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithUser(NewWithWriter(buf), "42")
	log.Info().Msg("hi")

	assert.Contains(t, buf.String(), `"user_id":"42"`)
}
