package magicpages

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestToggleOf(t *testing.T) {
	off := []any{false, 0, int64(0), uint8(0), float64(0)}
	for _, v := range off {
		assert.False(t, ToggleOf(v).Enabled(), "%T %v", v, v)
	}
	on := []any{nil, true, 1, int64(2), float64(0.5), "0", "false", ""}
	for _, v := range on {
		assert.True(t, ToggleOf(v).Enabled(), "%T %v", v, v)
	}
	assert.Equal(t, "on", On.String())
	assert.Equal(t, "off", Off.String())
}

func TestToggleText(t *testing.T) {
	tests := map[string]bool{
		"false": false,
		"0":     false,
		"true":  true,
		"1":     true,
		"maybe": true,
	}
	for in, want := range tests {
		var tg Toggle
		require.NoError(t, tg.UnmarshalText([]byte(in)))
		assert.Equal(t, want, tg.Enabled(), in)
	}
}

func TestToggleJSON(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"useMagicClasses": 0}`), &cfg))
	assert.False(t, cfg.UseMagicClasses.Enabled())

	require.NoError(t, json.Unmarshal([]byte(`{"useMagicClasses": "no"}`), &cfg))
	assert.True(t, cfg.UseMagicClasses.Enabled())

	out, err := json.Marshal(Off)
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(out))
}

func TestLoadConfigFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		enabled bool
	}{
		{"yaml false", "config.yaml", "useMagicClasses: false\nclassesPath: /srv/classes\n", false},
		{"yaml zero", "config.yml", "useMagicClasses: 0\nclassesPath: /srv/classes\n", false},
		{"yaml quoted", "config.yaml", "useMagicClasses: \"false\"\nclassesPath: /srv/classes\n", true},
		{"toml false", "config.toml", "useMagicClasses = false\nclassesPath = \"/srv/classes\"\n", false},
		{"toml zero", "config.toml", "useMagicClasses = 0\nclassesPath = \"/srv/classes\"\n", false},
		{"toml true", "config.toml", "useMagicClasses = true\nclassesPath = \"/srv/classes\"\n", true},
		{"json zero", "config.json", `{"useMagicClasses": 0, "classesPath": "/srv/classes"}`, false},
		{"json absent", "config.json", `{"classesPath": "/srv/classes"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, cfg.UseMagicClasses.Enabled())
			assert.Equal(t, "/srv/classes", cfg.ClassesPath)
			assert.Equal(t, "site/assets", cfg.AssetsPath)
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MAGICPAGES_USE_MAGIC_CLASSES", "false")
	t.Setenv("MAGICPAGES_ASSETS_PATH", "/var/www/assets")

	cfg, err := LoadConfig(writeFile(t, "config.yaml", "assetsPath: /srv/assets\n"))
	require.NoError(t, err)
	assert.False(t, cfg.UseMagicClasses.Enabled())
	assert.Equal(t, "/var/www/assets", cfg.AssetsPath)
	assert.Equal(t, "site/classes", cfg.ClassesPath)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.ini", "x=1"))
	assert.ErrorIs(t, err, ErrUnsupportedConfigFormat)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigLoad)

	_, err = LoadConfig(writeFile(t, "broken.json", "{"))
	assert.ErrorIs(t, err, ErrConfigLoad)
}
