// Package wordlist implements the CorpusLoader port for newline-delimited
// password lists read from local files or HTTP(S) URLs.
package wordlist

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CorpusLoader = (*Loader)(nil)

// cancelCheckLines is how often, in lines, the read loop checks its context.
const cancelCheckLines = 1 << 16

// Options configures a Loader. Zero values select the defaults noted per
// field.
type Options struct {
	Encoding Encoding // Default EncodingRaw.

	// HTTPClient fetches URL sources. Default: a client with an in-memory
	// httpcache transport, so reloading an unchanged remote list costs one
	// conditional request.
	HTTPClient *http.Client

	FetchTimeout time.Duration // Default 5m. Applies to one attempt.
	MaxRetries   uint64        // Default 3.
	RetryBase    time.Duration // Default 1s, Fibonacci backoff base.

	Logger *slog.Logger // Default slog.Default().
}

// Loader reads corpora line by line into memory.
type Loader struct {
	encoding     Encoding
	client       *http.Client
	fetchTimeout time.Duration
	maxRetries   uint64
	retryBase    time.Duration
	logger       *slog.Logger
}

// NewLoader creates a Loader with opts.
func NewLoader(opts Options) *Loader {
	l := &Loader{
		encoding:     opts.Encoding,
		client:       opts.HTTPClient,
		fetchTimeout: opts.FetchTimeout,
		maxRetries:   opts.MaxRetries,
		retryBase:    opts.RetryBase,
		logger:       opts.Logger,
	}
	if l.encoding == "" {
		l.encoding = EncodingRaw
	}
	if l.client == nil {
		l.client = &http.Client{Transport: httpcache.NewMemoryCacheTransport()}
	}
	if l.fetchTimeout == 0 {
		l.fetchTimeout = 5 * time.Minute
	}
	if l.maxRetries == 0 {
		l.maxRetries = 3
	}
	if l.retryBase == 0 {
		l.retryBase = time.Second
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads the corpus identified by source: an http:// or https:// URL, or
// a file path. Gzip-compressed content is detected and decompressed. Errors
// opening or reading the resource wrap model.ErrCorpusUnavailable.
func (l *Loader) Load(ctx context.Context, source string) (*model.Corpus, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty corpus source", model.ErrCorpusUnavailable)
	}

	start := time.Now()

	var (
		entries map[string]struct{}
		err     error
	)
	if isURL(source) {
		entries, err = l.loadURL(ctx, source)
	} else {
		entries, err = l.loadFile(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("corpus read",
		"source", source,
		"entries", len(entries),
		"encoding", string(l.encoding),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return model.NewCorpus(source, entries), nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) loadFile(ctx context.Context, path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", model.ErrCorpusUnavailable, path, err)
	}
	defer f.Close()

	entries, err := l.read(ctx, f)
	if err != nil {
		return nil, corpusReadError(ctx, path, err)
	}
	return entries, nil
}

// corpusReadError wraps a read failure. Only the caller's own cancellation or
// deadline is left unwrapped; a per-attempt fetch timeout means the corpus is
// unavailable.
func corpusReadError(ctx context.Context, source string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return fmt.Errorf("read corpus %s: %w", source, err)
	}
	return fmt.Errorf("%w: read %s: %w", model.ErrCorpusUnavailable, source, err)
}

// read consumes r and returns the set of distinct non-empty lines.
func (l *Loader) read(ctx context.Context, r io.Reader) (map[string]struct{}, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	return collectLines(ctx, bufio.NewReaderSize(l.encoding.decodeReader(src), 1<<20))
}

// collectLines splits on '\n', drops one trailing '\r', and skips empty
// lines. Lines have no length limit.
func collectLines(ctx context.Context, br *bufio.Reader) (map[string]struct{}, error) {
	entries := make(map[string]struct{})
	for n := 0; ; n++ {
		if n%cancelCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// Grow the line across buffer refills.
			long := append([]byte(nil), line...)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = br.ReadSlice('\n')
				long = append(long, line...)
			}
			line = long
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) > 0 {
			entries[string(line)] = struct{}{}
		}

		if errors.Is(err, io.EOF) {
			return entries, nil
		}
	}
}
