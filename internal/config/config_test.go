package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8090", cfg.Address())
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.Service.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Service.Timeout)
	assert.Equal(t, 5, cfg.Service.TopK)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes())
	assert.Equal(t, []string{".pdf"}, cfg.Upload.AllowedExtensions)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9001
service:
  base_url: http://rag.internal/api/v1
  timeout: 30s
  top_k: 8
`), 0o644))

	t.Setenv("ASKDESK_SERVICE_BASE_URL", "http://override/api/v1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "http://override/api/v1", cfg.Service.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 8, cfg.Service.TopK)
}

func TestLoad_RejectsOutOfRangeTopK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  top_k: 50\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "top_k")
}
