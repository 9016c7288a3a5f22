package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.False(t, cfg.HasCredentials())
	assert.NotNil(t, cfg.Sharecodes)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Config{
		API: APIConfig{Username: "user", Key: "secret"},
		Sharecodes: map[string]string{
			"left":  "62169420AAF",
			"right": "62169420AB0",
		},
	}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.True(t, loaded.HasCredentials())
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PISHOCK_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api:\n  username: user\n  key: ${TEST_PISHOCK_KEY}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Key)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCodeNames_Sorted(t *testing.T) {
	cfg := Config{Sharecodes: map[string]string{
		"zeta": "62169420AAF",
		"alfa": "62169420AB0",
		"mid":  "62169420AB1",
	}}

	assert.Equal(t, []string{"alfa", "mid", "zeta"}, cfg.CodeNames())
}
