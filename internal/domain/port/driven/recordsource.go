package driven

import (
	"context"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// RecordSource defines the driven port that yields the credential batch for
// one run.
type RecordSource interface {
	// Name identifies the source in reports and logs (a file path, an API
	// label).
	Name() string

	// Records returns the whole batch in source order. Rows without a
	// password field are returned with PasswordMissing set rather than
	// reported as an error.
	Records(ctx context.Context) ([]model.CredentialRecord, error)
}
