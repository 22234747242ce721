package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		env     string
		enabled zapcore.Level
		quiet   zapcore.Level
		wantErr bool
	}{
		{name: "default info", cfg: DefaultConfig(), enabled: zap.InfoLevel, quiet: zap.DebugLevel},
		{name: "configured warn", cfg: Config{Level: "warn"}, enabled: zap.WarnLevel, quiet: zap.InfoLevel},
		{name: "env overrides config", cfg: Config{Level: "error"}, env: "debug", enabled: zap.DebugLevel, quiet: zap.DebugLevel - 1},
		{name: "development console", cfg: Config{Level: "debug", Development: true, Encoding: "console"}, enabled: zap.DebugLevel, quiet: zap.DebugLevel - 1},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad env level", cfg: DefaultConfig(), env: "loud", wantErr: true},
		{name: "bad encoding", cfg: Config{Encoding: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LevelEnv, tt.env)

			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.quiet))
		})
	}
}

func TestInstall(t *testing.T) {
	logger := zap.NewNop()
	restore := Install(logger)
	defer restore()

	assert.Same(t, logger, zap.L())
}
