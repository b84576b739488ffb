// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coinselect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "0.0.0.0:8090", cfg.ApiListenAddress())
	assert.Equal(t, "0.0.0.0:12799", cfg.MetricsListenAddress())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
bindAddr: "127.0.0.1"
apiPort: 9000
codec: raw
coinsPerByte: 44
journal: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.Codec = "raw"
	expected.CoinsPerByte = 44
	expected.Journal = false
	assert.Equal(t, expected, cfg)
}

func TestLoadConfigSection(t *testing.T) {
	path := writeConfig(t, `
config:
  dataDir: /var/lib/coinselect
  debug: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/coinselect", cfg.DataDir)
	assert.True(t, cfg.Debug)
	// values outside the section keep their defaults
	assert.Equal(t, uint(DefaultApiPort), cfg.ApiPort)
	assert.True(t, cfg.Journal)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "apiPort: 9000\ncodec: raw\n")
	t.Setenv("COINSELECT_API_PORT", "9100")
	t.Setenv("COINSELECT_COINS_PER_BYTE", "1")
	t.Setenv("COINSELECT_INCLUDE_STACK", "true")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, uint64(1), cfg.CoinsPerByte)
	assert.True(t, cfg.IncludeStack)
	assert.Equal(t, "raw", cfg.Codec)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "apiPort: [1"))
	require.Error(t, err)

	tests := map[string]string{
		"unknown codec":  "codec: byron\n",
		"zero cpb":       "coinsPerByte: 0\n",
		"bad timeout":    "shutdownTimeout: soon\n",
		"negative":       "shutdownTimeout: -1s\n",
		"port too large": "metricsPort: 70000\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	cfg := &Config{}
	d, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	cfg.ShutdownTimeout = "5s"
	d, err = cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
