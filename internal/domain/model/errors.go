package model

import "errors"

// Error kinds surfaced by the evaluation engine. Callers branch on them with
// errors.Is; the wrapping error carries the offending source, row or setting.
var (
	// ErrCorpusUnavailable means the compromised-password corpus could not be
	// read. It is fatal to compromise checking only.
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrMalformedRecord marks a credential record missing a required field.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidConfiguration is returned before any evaluation starts when an
	// option is out of range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
