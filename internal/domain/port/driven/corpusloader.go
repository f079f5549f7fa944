package driven

import (
	"context"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// CorpusLoader defines the driven port for reading a compromised-password
// corpus into memory.
type CorpusLoader interface {
	// Load reads the newline-delimited resource identified by source. Errors
	// for a missing or unreadable resource wrap model.ErrCorpusUnavailable.
	// An empty resource yields an empty corpus and no error.
	Load(ctx context.Context, source string) (*model.Corpus, error)
}
