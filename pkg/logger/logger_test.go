package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "development", cfg: Config{Level: "debug", Environment: "development"}},
		{name: "production stdout only", cfg: Config{Level: "info", Environment: "production"}},
		{name: "production with rotation", cfg: Config{Level: "warn", Environment: "production", LogDir: filepath.Join(t.TempDir(), "logs"), ServiceName: "test"}},
		{name: "bad level", cfg: Config{Level: "loud", Environment: "development"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, Log)
			assert.NotPanics(t, func() {
				Info("hello", zap.String("k", "v"))
				LogHTTPRequest("GET", "/x", 503, 0.1)
				LogAPICall("redis", "publish", "error", 0.01)
			})
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 100, orDefault(0, 100))
	assert.Equal(t, 7, orDefault(7, 100))
}
