package application_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwaudit/internal/application"
	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

func newEvaluator(t *testing.T, opts application.EvaluatorOptions) *application.Evaluator {
	t.Helper()
	e, err := application.NewEvaluator(opts)
	require.NoError(t, err)
	return e
}

func TestEvaluate_PerRecordResults(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(), records("abc", "Aa1!aaaaaaaa", "Password1!"), corpusOf("Password1!"))
	require.NoError(t, err)
	require.Len(t, eval.Results, 3)

	weak := eval.Results[0]
	assert.Equal(t, "abc", weak.Password)
	assert.False(t, weak.LengthOK)
	assert.False(t, weak.ComplexityOK)
	assert.False(t, weak.IsStrong)
	assert.Len(t, weak.Suggestions, 4, "lowercase rule is satisfied")
	assert.Equal(t, 6, weak.Score)
	assert.Equal(t, model.CompromiseClean, weak.Compromise)

	strong := eval.Results[1]
	assert.True(t, strong.IsStrong)
	assert.Empty(t, strong.Suggestions)
	assert.Equal(t, 10, strong.Score)

	phrase := eval.Results[2]
	assert.True(t, phrase.IsStrong)
	assert.Equal(t, 7, phrase.Score)
	assert.True(t, phrase.IsCompromised())
}

func TestEvaluate_PreservesOrderAndPassesIdentityThrough(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())
	in := []model.CredentialRecord{
		{ID: "42", Username: "alice", Password: "zeta", Row: 2},
		{ID: "7", Username: "bob", Password: "alpha", Row: 3},
		{ID: "42", Username: "alice", Password: "mid", Row: 4},
	}

	eval, err := e.Evaluate(context.Background(), in, nil)
	require.NoError(t, err)
	require.Len(t, eval.Results, 3)

	for i := range in {
		assert.Equal(t, in[i], eval.Results[i].CredentialRecord)
	}
}

func TestEvaluate_Aggregates(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(),
		records("x", "x", "y", "Aa1!aaaaaaaa", "Aa1!aaaaaaaa", "Aa1!aaaaaaaa", "letmein"),
		corpusOf("x", "letmein"),
	)
	require.NoError(t, err)

	assert.Equal(t, model.Aggregates{
		Total:               7,
		StrongCount:         3,
		WeakCount:           4,
		DuplicateCount:      2,
		CompromisedCount:    3,
		CompromiseEvaluated: true,
		SkippedCount:        0,
	}, eval.Stats)
	assert.Equal(t, []model.Duplicate{
		{Password: "Aa1!aaaaaaaa", Count: 3},
		{Password: "x", Count: 2},
	}, eval.Duplicates)
}

func TestEvaluate_DuplicateScenario(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(), records("x", "x", "y"), nil)
	require.NoError(t, err)

	assert.Equal(t, []model.Duplicate{{Password: "x", Count: 2}}, eval.Duplicates)
	assert.Equal(t, 3, eval.Stats.Total)
	assert.Equal(t, 1, eval.Stats.DuplicateCount)
}

func TestEvaluate_WithoutCorpusMarksNotEvaluated(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(), records("123456", "Password1!"), nil)
	require.NoError(t, err)

	for _, r := range eval.Results {
		assert.Equal(t, model.CompromiseNotEvaluated, r.Compromise)
		assert.False(t, r.IsCompromised())
	}
	assert.False(t, eval.Stats.CompromiseEvaluated)
	assert.Zero(t, eval.Stats.CompromisedCount)
}

func TestEvaluate_EmptyCorpusIsEvaluated(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(), records("123456"), corpusOf())
	require.NoError(t, err)

	assert.True(t, eval.Stats.CompromiseEvaluated, "checked, none found")
	assert.Zero(t, eval.Stats.CompromisedCount)
	assert.Equal(t, model.CompromiseClean, eval.Results[0].Compromise)
}

func TestEvaluate_SkipsMalformedRecords(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())
	in := []model.CredentialRecord{
		{ID: "1", Password: "dup", Row: 2},
		{ID: "2", Row: 3, PasswordMissing: true},
		{ID: "3", Password: "dup", Row: 4},
		{ID: "4", PasswordMissing: true},
	}

	eval, err := e.Evaluate(context.Background(), in, nil)
	require.NoError(t, err)

	require.Len(t, eval.Results, 2)
	assert.Equal(t, "1", eval.Results[0].ID)
	assert.Equal(t, "3", eval.Results[1].ID)

	require.Len(t, eval.Skipped, 2)
	assert.Equal(t, 1, eval.Skipped[0].Index)
	assert.Equal(t, 3, eval.Skipped[0].Row)
	assert.Equal(t, "2", eval.Skipped[0].ID)
	assert.Contains(t, eval.Skipped[0].Reason, "malformed record")
	assert.Contains(t, eval.Skipped[0].Reason, "row 3")
	assert.Contains(t, eval.Skipped[1].Reason, `record "4"`)

	assert.Equal(t, 2, eval.Stats.Total)
	assert.Equal(t, 2, eval.Stats.SkippedCount)
	assert.Equal(t, 1, eval.Stats.DuplicateCount)
}

func TestEvaluate_EmptyBatch(t *testing.T) {
	e := newEvaluator(t, application.DefaultEvaluatorOptions())

	eval, err := e.Evaluate(context.Background(), nil, corpusOf("a"))
	require.NoError(t, err)

	assert.Empty(t, eval.Results)
	assert.NotNil(t, eval.Duplicates)
	assert.NotNil(t, eval.Skipped)
	assert.Equal(t, model.Aggregates{CompromiseEvaluated: true}, eval.Stats)
}

func TestEvaluate_MinLengthAffectsStrengthNotScore(t *testing.T) {
	e := newEvaluator(t, application.EvaluatorOptions{MinLength: 16})

	eval, err := e.Evaluate(context.Background(), records("Aa1!aaaaaaaa"), nil)
	require.NoError(t, err)

	r := eval.Results[0]
	assert.False(t, r.LengthOK)
	assert.False(t, r.IsStrong)
	assert.Equal(t, []string{"Increase the password length to at least 16 characters."}, r.Suggestions)
	assert.Equal(t, 10, r.Score, "the scorer's length bonus threshold is fixed")
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	batch := make([]model.CredentialRecord, 0, 5000)
	for i := range 5000 {
		batch = append(batch, model.CredentialRecord{
			ID:       fmt.Sprint(i),
			Password: fmt.Sprintf("Pw%d!%s", i%700, []string{"", "admin", "x"}[i%3]),
			Row:      i + 2,
		})
	}
	corpus := corpusOf("Pw1!", "Pw2!admin", "Pw10!x")

	seq := newEvaluator(t, application.EvaluatorOptions{MinLength: 8, Workers: 1})
	par := newEvaluator(t, application.EvaluatorOptions{MinLength: 8, Workers: 8})

	want, err := seq.Evaluate(context.Background(), batch, corpus)
	require.NoError(t, err)
	got, err := par.Evaluate(context.Background(), batch, corpus)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestEvaluate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		e := newEvaluator(t, application.EvaluatorOptions{MinLength: 8, Workers: workers})
		batch := make([]model.CredentialRecord, 2000)

		_, err := e.Evaluate(ctx, batch, nil)
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestNewEvaluator_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts application.EvaluatorOptions
		msg  string
	}{
		{name: "negative min length", opts: application.EvaluatorOptions{MinLength: -1}, msg: "min length"},
		{name: "negative workers", opts: application.EvaluatorOptions{MinLength: 8, Workers: -2}, msg: "workers"},
		{name: "empty pattern", opts: application.EvaluatorOptions{MinLength: 8, CommonPatterns: []string{"admin", ""}}, msg: "pattern 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := application.NewEvaluator(tt.opts)
			assert.Nil(t, e)
			require.ErrorIs(t, err, model.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
