package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`database:
  driver: sqlite
  path: %s
export:
  dir: %s
media:
  ffmpeg_path: storelens-no-such-ffmpeg
  work_dir: %s
logging:
  level: error
`, filepath.Join(dir, "reports.db"), filepath.Join(dir, "exports"), filepath.Join(dir, "work"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("AI_API_KEY", "")
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"s1","store_name":"Corner","store_size":60}`), 0o600))

	p, err := readProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Corner", p.Name)
	require.NotNil(t, p.Size)
	assert.Equal(t, 60.0, *p.Size)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = readProfile(path)
	assert.Error(t, err)

	_, err = readProfile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPersonasCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	out, err := execute(t, "--config", cfgPath, "personas")
	require.NoError(t, err)
	assert.Contains(t, out, "layout_designer")
	assert.Contains(t, out, "sales_optimizer")
}

func TestAnalyzeCommandOffline(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	profile := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(profile, []byte(`{"id":"s1","store_name":"Corner","store_size":60}`), 0o600))

	out, err := execute(t, "--config", cfgPath, "analyze", "--tenant", "acme", profile)
	require.NoError(t, err)
	assert.Contains(t, out, "Store:      Corner (s1)")
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, "Export:")

	out, err = execute(t, "--config", cfgPath, "history", "acme", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 reports)")
}

func TestAnalyzeCommandRejectsInvalidProfile(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	profile := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(profile, []byte(`{"id":"s1"}`), 0o600))

	_, err := execute(t, "--config", cfgPath, "analyze", profile)
	assert.ErrorContains(t, err, "store_name")
}

func TestUploadRequiresObjectStorage(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := execute(t, "--config", cfgPath, "upload", "a.png")
	assert.ErrorContains(t, err, "object storage is disabled")
}
