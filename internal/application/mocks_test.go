package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// --- Mock implementations ---

type mockCorpusLoader struct {
	mu     sync.Mutex
	calls  int
	corpus *model.Corpus
	err    error

	// gate, when set, holds every Load until it is closed.
	gate chan struct{}
}

func (m *mockCorpusLoader) Load(_ context.Context, _ string) (*model.Corpus, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.gate != nil {
		<-m.gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.corpus, nil
}

func (m *mockCorpusLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRecordSource struct {
	name    string
	records []model.CredentialRecord
	err     error
}

func (m *mockRecordSource) Name() string { return m.name }

func (m *mockRecordSource) Records(_ context.Context) ([]model.CredentialRecord, error) {
	return m.records, m.err
}

type mockSink struct {
	exported []*model.Report
	err      error
}

func (m *mockSink) Export(_ context.Context, report *model.Report) error {
	m.exported = append(m.exported, report)
	return m.err
}

func records(passwords ...string) []model.CredentialRecord {
	recs := make([]model.CredentialRecord, len(passwords))
	for i, p := range passwords {
		recs[i] = model.CredentialRecord{
			ID:       string(rune('a' + i%26)),
			Username: "user",
			Password: p,
			Row:      i + 1,
		}
	}
	return recs
}

func corpusOf(entries ...string) *model.Corpus {
	m := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		m[e] = struct{}{}
	}
	return model.NewCorpus("test-corpus", m)
}
