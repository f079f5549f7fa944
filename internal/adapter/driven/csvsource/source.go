// Package csvsource implements the RecordSource port for CSV files with an
// id, username and password header.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RecordSource = (*Source)(nil)

// ErrNoPasswordColumn is returned when the header has no password column.
var ErrNoPasswordColumn = errors.New("csv header has no password column")

// Source reads credential records from a CSV file. Header names are matched
// case-insensitively; the id and username columns are optional. Cell values
// are never trimmed.
type Source struct {
	path string
}

// New creates a Source for the CSV file at path.
func New(path string) *Source {
	return &Source{path: path}
}

// Name returns the file path.
func (s *Source) Name() string {
	return s.path
}

// Records reads the whole file. A row too short to reach the password column
// is returned with PasswordMissing set.
func (s *Source) Records(ctx context.Context) ([]model.CredentialRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	recs, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return recs, nil
}

type columns struct {
	id, username, password int
}

// Parse reads CSV records from r. Record rows are the 1-based line numbers
// where each record starts.
func Parse(ctx context.Context, r io.Reader) ([]model.CredentialRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.CredentialRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	recs := []model.CredentialRecord{}
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		line, _ := cr.FieldPos(0)
		rec := model.CredentialRecord{
			ID:       field(fields, cols.id),
			Username: field(fields, cols.username),
			Row:      line,
		}
		if cols.password < len(fields) {
			rec.Password = fields[cols.password]
		} else {
			rec.PasswordMissing = true
		}
		recs = append(recs, rec)
	}
}

func mapHeader(header []string) (columns, error) {
	cols := columns{id: -1, username: -1, password: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			cols.id = i
		case "username", "user":
			cols.username = i
		case "password":
			cols.password = i
		}
	}
	if cols.password < 0 {
		return cols, fmt.Errorf("%w (columns: %s)", ErrNoPasswordColumn, strings.Join(header, ","))
	}
	return cols, nil
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
