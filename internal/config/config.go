// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	MinLength int

	// CommonPatterns is nil when PWAUDIT_COMMON_PATTERNS is unset, selecting
	// the built-in list. A set but empty variable disables the penalty.
	CommonPatterns []string

	CorpusSource       string
	CorpusRequired     bool
	CorpusEncoding     string
	CorpusFetchTimeout time.Duration

	// CorpusRefreshInterval reloads the corpus periodically in serve mode.
	// Zero disables it.
	CorpusRefreshInterval time.Duration

	Workers int

	InputPath     string
	ReportDir     string
	ReportFormats []model.ReportFormat

	DBPath    string
	SecretKey []byte // nil, or 32 bytes.

	ListenAddr string
}

// HasCorpus reports whether compromise checking is configured.
func (c *Config) HasCorpus() bool {
	return c.CorpusSource != ""
}

// HasArchive reports whether runs are archived to a database.
func (c *Config) HasArchive() bool {
	return c.DBPath != ""
}

var corpusEncodings = map[string]bool{
	"raw": true, "latin1": true, "latin-1": true, "iso-8859-1": true, "utf8": true, "utf-8": true,
}

// Load reads PWAUDIT_ environment variables and returns a validated Config.
// Every validation error wraps model.ErrInvalidConfiguration and names the
// offending variable.
func Load() (*Config, error) {
	cfg := &Config{
		MinLength:          8,
		CorpusRequired:     true,
		CorpusEncoding:     "raw",
		CorpusFetchTimeout: 5 * time.Minute,
		Workers:            1,
		ReportDir:          ".",
		ReportFormats:      []model.ReportFormat{model.ReportFormatJSON},
		ListenAddr:         "127.0.0.1:8080",
	}

	var err error

	if v, ok := os.LookupEnv("PWAUDIT_MIN_LENGTH"); ok {
		if cfg.MinLength, err = strconv.Atoi(strings.TrimSpace(v)); err != nil || cfg.MinLength < 0 {
			return nil, invalid("PWAUDIT_MIN_LENGTH", "must be a non-negative integer, got %q", v)
		}
	}

	if v, ok := os.LookupEnv("PWAUDIT_COMMON_PATTERNS"); ok {
		cfg.CommonPatterns = splitList(v)
	}

	cfg.CorpusSource = strings.TrimSpace(os.Getenv("PWAUDIT_CORPUS_SOURCE"))

	if v, ok := os.LookupEnv("PWAUDIT_CORPUS_REQUIRED"); ok {
		if cfg.CorpusRequired, err = strconv.ParseBool(strings.TrimSpace(v)); err != nil {
			return nil, invalid("PWAUDIT_CORPUS_REQUIRED", "must be a boolean, got %q", v)
		}
	}

	if v, ok := os.LookupEnv("PWAUDIT_CORPUS_ENCODING"); ok {
		enc := strings.ToLower(strings.TrimSpace(v))
		if !corpusEncodings[enc] {
			return nil, invalid("PWAUDIT_CORPUS_ENCODING", "must be raw, latin1 or utf8, got %q", v)
		}
		cfg.CorpusEncoding = enc
	}

	if v, ok := os.LookupEnv("PWAUDIT_CORPUS_FETCH_TIMEOUT"); ok {
		if cfg.CorpusFetchTimeout, err = time.ParseDuration(strings.TrimSpace(v)); err != nil || cfg.CorpusFetchTimeout <= 0 {
			return nil, invalid("PWAUDIT_CORPUS_FETCH_TIMEOUT", "must be a positive duration, got %q", v)
		}
	}

	if v, ok := os.LookupEnv("PWAUDIT_CORPUS_REFRESH_INTERVAL"); ok && v != "" {
		if cfg.CorpusRefreshInterval, err = time.ParseDuration(strings.TrimSpace(v)); err != nil || cfg.CorpusRefreshInterval < 0 {
			return nil, invalid("PWAUDIT_CORPUS_REFRESH_INTERVAL", "must be a non-negative duration, got %q", v)
		}
	}

	if v, ok := os.LookupEnv("PWAUDIT_WORKERS"); ok {
		if cfg.Workers, err = strconv.Atoi(strings.TrimSpace(v)); err != nil || cfg.Workers < 1 {
			return nil, invalid("PWAUDIT_WORKERS", "must be a positive integer, got %q", v)
		}
	}

	cfg.InputPath = strings.TrimSpace(os.Getenv("PWAUDIT_INPUT_PATH"))

	if v, ok := os.LookupEnv("PWAUDIT_REPORT_DIR"); ok && v != "" {
		cfg.ReportDir = v
	}

	if v, ok := os.LookupEnv("PWAUDIT_REPORT_FORMATS"); ok {
		if cfg.ReportFormats, err = parseFormats(v); err != nil {
			return nil, err
		}
	}

	cfg.DBPath = strings.TrimSpace(os.Getenv("PWAUDIT_DB_PATH"))

	if v := strings.TrimSpace(os.Getenv("PWAUDIT_SECRET_KEY")); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil || len(key) != 32 {
			return nil, invalid("PWAUDIT_SECRET_KEY", "must be 64 hex characters")
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("PWAUDIT_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}

	return cfg, nil
}

// parseFormats parses a comma-separated format list. Repeats are dropped and
// an empty list disables file reports.
func parseFormats(v string) ([]model.ReportFormat, error) {
	formats := []model.ReportFormat{}
	seen := make(map[model.ReportFormat]bool)
	for _, name := range splitList(v) {
		f, ok := model.ParseReportFormat(strings.ToLower(name))
		if !ok {
			return nil, invalid("PWAUDIT_REPORT_FORMATS", "unknown format %q (want json, markdown, html or csv)", name)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", model.ErrInvalidConfiguration, key, fmt.Sprintf(format, args...))
}
