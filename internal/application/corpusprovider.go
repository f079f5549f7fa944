package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// CorpusProvider holds the compromised-password corpus for the process and
// allows it to be reloaded between runs without a restart. Each run takes one
// snapshot through Get or Current and keeps using it; a reload never changes
// the corpus under a run in progress.
type CorpusProvider struct {
	loader driven.CorpusLoader
	source string
	logger *slog.Logger

	loads singleflight.Group

	mu     sync.RWMutex
	corpus *model.Corpus
}

// NewCorpusProvider creates a provider for source. An empty source disables
// compromise checking; Get then always returns nil.
func NewCorpusProvider(loader driven.CorpusLoader, source string, logger *slog.Logger) *CorpusProvider {
	return &CorpusProvider{
		loader: loader,
		source: source,
		logger: logger,
	}
}

// Source returns the configured corpus source identifier.
func (p *CorpusProvider) Source() string {
	return p.source
}

// Enabled reports whether a corpus source is configured.
func (p *CorpusProvider) Enabled() bool {
	return p.source != ""
}

// Get returns the currently loaded corpus, or nil if none is loaded.
func (p *CorpusProvider) Get() *model.Corpus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.corpus
}

// Current returns the loaded corpus, loading it on first use. It returns
// (nil, nil) when the provider is disabled.
func (p *CorpusProvider) Current(ctx context.Context) (*model.Corpus, error) {
	if !p.Enabled() {
		return nil, nil
	}
	if c := p.Get(); c != nil {
		return c, nil
	}
	return p.shared(ctx, func(ctx context.Context) (*model.Corpus, error) {
		if c := p.Get(); c != nil {
			return c, nil
		}
		return p.load(ctx)
	})
}

// Reload reads the corpus from its source and swaps it in. On failure the
// previously loaded corpus, if any, stays in place and the error is returned.
// Concurrent callers share a single load, which outlives any one caller's
// cancellation; a canceled caller returns ctx.Err() without waiting for it.
func (p *CorpusProvider) Reload(ctx context.Context) (*model.Corpus, error) {
	if !p.Enabled() {
		return nil, nil
	}

	return p.shared(ctx, p.load)
}

// shared runs fn once for all concurrent callers.
func (p *CorpusProvider) shared(ctx context.Context, fn func(context.Context) (*model.Corpus, error)) (*model.Corpus, error) {
	ch := p.loads.DoChan(p.source, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Corpus), nil
	}
}

func (p *CorpusProvider) load(ctx context.Context) (*model.Corpus, error) {
	c, err := p.loader.Load(ctx, p.source)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.corpus = c
	p.mu.Unlock()

	p.logger.Info("corpus loaded", "source", p.source, "entries", c.Len())
	return c, nil
}

// RefreshEvery reloads the corpus every interval until ctx is done. Failed
// reloads are logged and the previous corpus stays in use. It blocks; run it
// in its own goroutine.
func (p *CorpusProvider) RefreshEvery(ctx context.Context, interval time.Duration) {
	if !p.Enabled() || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("corpus refresh stopped")
			return
		case <-ticker.C:
			if _, err := p.Reload(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("corpus refresh failed", "source", p.source, "error", err)
			}
		}
	}
}
