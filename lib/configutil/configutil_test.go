package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Username string `json:"username"`
	Format   string `json:"format"`
	Limit    int    `json:"limit"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "dhapi.json5"), []byte(`{
		// defaults
		username: "alice",
		format: "table",
		limit: 5,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "dhapi.local.json5"), []byte(`{format: "json"}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "dhapi.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{Username: "alice", Format: "json", Limit: 5}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	envfile := filepath.Join(dir, ".env")
	err := os.WriteFile(envfile, []byte("DHAPI_TEST_DOTENV=from-file\n"), 0600)
	require.NoError(t, err)

	t.Setenv("DHAPI_TEST_DOTENV", "")
	os.Unsetenv("DHAPI_TEST_DOTENV")

	require.NoError(t, LoadDotenv(envfile, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", EnvOr("DHAPI_TEST_DOTENV", "fallback"))
	require.Equal(t, "fallback", EnvOr("DHAPI_TEST_UNSET_VARIABLE", "fallback"))
}
