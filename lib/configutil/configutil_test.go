package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string `json:"name"`
	DelayMs int    `json:"delay_ms"`
	Nested  struct {
		Headless bool   `json:"headless"`
		Bin      string `json:"bin"`
	} `json:"nested"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "mytimetable.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{
		// comments are allowed
		name: "winter",
		delay_ms: 250,
		nested: { bin: "/usr/bin/chromium" },
	}`), 0600))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "mytimetable.local.json5"),
		[]byte(`{ delay_ms: 500 }`),
		0600,
	))

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, "winter", cfg.Name)
	require.Equal(t, 500, cfg.DelayMs)
	require.Equal(t, "/usr/bin/chromium", cfg.Nested.Bin)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{Name: "default", DelayMs: 250}

	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "missing.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ name: "fall" }`), 0600))
	cfg, err = ReadConfigWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, "fall", cfg.Name)
	require.Equal(t, 250, cfg.DelayMs)
}

type pointerConfig struct {
	DelayMs *int     `json:"delay_ms"`
	Rate    *float64 `json:"rate"`
}

func TestReadConfigWithDefaultsKeepsExplicitZero(t *testing.T) {
	delay, rate := 250, 4.0
	defaults := pointerConfig{DelayMs: &delay, Rate: &rate}

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ delay_ms: 0 }`), 0600))

	cfg, err := ReadConfigWithDefaults(path, defaults)
	require.NoError(t, err)
	require.NotNil(t, cfg.DelayMs)
	require.Equal(t, 0, *cfg.DelayMs)
	require.NotNil(t, cfg.Rate)
	require.Equal(t, 4.0, *cfg.Rate)
	require.Equal(t, 250, delay)
}

func TestReadConfigLocalOverridesWithZero(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "cfg.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{ delay_ms: 250, rate: 4 }`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cfg.local.json5"), []byte(`{ rate: 0 }`), 0600))

	cfg, err := ReadConfig[pointerConfig](base)
	require.NoError(t, err)
	require.Equal(t, 250, *cfg.DelayMs)
	require.Equal(t, 0.0, *cfg.Rate)
}
