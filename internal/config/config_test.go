package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// allConfigKeys lists every PWAUDIT_ env var that Load() reads.
var allConfigKeys = []string{
	"PWAUDIT_MIN_LENGTH",
	"PWAUDIT_COMMON_PATTERNS",
	"PWAUDIT_CORPUS_SOURCE",
	"PWAUDIT_CORPUS_REQUIRED",
	"PWAUDIT_CORPUS_ENCODING",
	"PWAUDIT_CORPUS_FETCH_TIMEOUT",
	"PWAUDIT_CORPUS_REFRESH_INTERVAL",
	"PWAUDIT_WORKERS",
	"PWAUDIT_INPUT_PATH",
	"PWAUDIT_REPORT_DIR",
	"PWAUDIT_REPORT_FORMATS",
	"PWAUDIT_DB_PATH",
	"PWAUDIT_SECRET_KEY",
	"PWAUDIT_LISTEN_ADDR",
}

// isolateConfigEnv saves and unsets all PWAUDIT_ env vars so tests don't
// inherit values from the host environment.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MinLength)
	assert.Nil(t, cfg.CommonPatterns)
	assert.False(t, cfg.HasCorpus())
	assert.True(t, cfg.CorpusRequired)
	assert.Equal(t, "raw", cfg.CorpusEncoding)
	assert.Equal(t, 5*time.Minute, cfg.CorpusFetchTimeout)
	assert.Zero(t, cfg.CorpusRefreshInterval)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, ".", cfg.ReportDir)
	assert.Equal(t, []model.ReportFormat{model.ReportFormatJSON}, cfg.ReportFormats)
	assert.False(t, cfg.HasArchive())
	assert.Nil(t, cfg.SecretKey)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWAUDIT_MIN_LENGTH", "12")
	t.Setenv("PWAUDIT_COMMON_PATTERNS", "acme, Winter ,,")
	t.Setenv("PWAUDIT_CORPUS_SOURCE", "https://example.com/rockyou.txt.gz")
	t.Setenv("PWAUDIT_CORPUS_REQUIRED", "false")
	t.Setenv("PWAUDIT_CORPUS_ENCODING", "Latin1")
	t.Setenv("PWAUDIT_CORPUS_FETCH_TIMEOUT", "90s")
	t.Setenv("PWAUDIT_CORPUS_REFRESH_INTERVAL", "1h")
	t.Setenv("PWAUDIT_WORKERS", "4")
	t.Setenv("PWAUDIT_INPUT_PATH", "users.csv")
	t.Setenv("PWAUDIT_REPORT_DIR", "/tmp/reports")
	t.Setenv("PWAUDIT_REPORT_FORMATS", "json,md,html,csv,json")
	t.Setenv("PWAUDIT_DB_PATH", "/tmp/pwaudit.db")
	t.Setenv("PWAUDIT_SECRET_KEY", strings.Repeat("ab", 32))
	t.Setenv("PWAUDIT_LISTEN_ADDR", "0.0.0.0:9090")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MinLength)
	assert.Equal(t, []string{"acme", "Winter"}, cfg.CommonPatterns)
	assert.True(t, cfg.HasCorpus())
	assert.False(t, cfg.CorpusRequired)
	assert.Equal(t, "latin1", cfg.CorpusEncoding)
	assert.Equal(t, 90*time.Second, cfg.CorpusFetchTimeout)
	assert.Equal(t, time.Hour, cfg.CorpusRefreshInterval)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "users.csv", cfg.InputPath)
	assert.Equal(t, "/tmp/reports", cfg.ReportDir)
	assert.Equal(t, []model.ReportFormat{
		model.ReportFormatJSON, model.ReportFormatMarkdown, model.ReportFormatHTML, model.ReportFormatCSV,
	}, cfg.ReportFormats)
	assert.True(t, cfg.HasArchive())
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
}

func TestLoad_EmptyPatternsDisablePenalty(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWAUDIT_COMMON_PATTERNS", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.NotNil(t, cfg.CommonPatterns)
	assert.Empty(t, cfg.CommonPatterns)
}

func TestLoad_EmptyFormatsDisableFileReports(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("PWAUDIT_REPORT_FORMATS", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.ReportFormats)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "PWAUDIT_MIN_LENGTH", value: "eight"},
		{key: "PWAUDIT_MIN_LENGTH", value: "-1"},
		{key: "PWAUDIT_CORPUS_REQUIRED", value: "maybe"},
		{key: "PWAUDIT_CORPUS_ENCODING", value: "ebcdic"},
		{key: "PWAUDIT_CORPUS_FETCH_TIMEOUT", value: "soon"},
		{key: "PWAUDIT_CORPUS_FETCH_TIMEOUT", value: "0s"},
		{key: "PWAUDIT_CORPUS_REFRESH_INTERVAL", value: "-1m"},
		{key: "PWAUDIT_WORKERS", value: "0"},
		{key: "PWAUDIT_REPORT_FORMATS", value: "json,pdf"},
		{key: "PWAUDIT_SECRET_KEY", value: "not-hex"},
		{key: "PWAUDIT_SECRET_KEY", value: strings.Repeat("ab", 16)},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.ErrorIs(t, err, model.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
