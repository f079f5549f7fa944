package report

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		RunID:        "6f1c2d1e-0000-4000-8000-000000000001",
		GeneratedAt:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Source:       "/data/users.csv",
		CorpusSource: "rockyou.txt",
		MinLength:    8,
		Evaluation: model.Evaluation{
			Results: []model.EvaluationResult{
				{
					CredentialRecord: model.CredentialRecord{ID: "1", Username: "alice", Password: "Str0ng!Pass", Row: 2},
					LengthOK:         true, ComplexityOK: true, IsStrong: true,
					Score: 9, Compromise: model.CompromiseClean,
					Suggestions: []string{},
				},
				{
					CredentialRecord: model.CredentialRecord{ID: "2", Username: "bob", Password: "pa|ss*<b>", Row: 3},
					Score:            5, Compromise: model.CompromiseFound,
					Suggestions: []string{"Add uppercase letters.", "Add digits."},
				},
			},
			Duplicates: []model.Duplicate{{Password: "pa|ss*<b>", Count: 2}},
			Skipped:    []model.SkippedRecord{{Index: 2, Row: 4, Reason: "malformed record: row 4 has no password field"}},
			Stats: model.Aggregates{
				Total: 2, StrongCount: 1, WeakCount: 1, DuplicateCount: 1,
				CompromisedCount: 1, CompromiseEvaluated: true, SkippedCount: 1,
			},
		},
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleReport())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "2026-03-04T05:06:07Z", doc["generated_at"])
	summary := doc["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["compromised_count"])
	assert.EqualValues(t, 2, summary["total"])

	results := doc["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "clean", first["compromised"])
	assert.Equal(t, []any{}, first["suggestions"])
}

func TestJSON_NotEvaluated(t *testing.T) {
	r := sampleReport()
	r.CorpusSource = ""
	r.Stats.CompromiseEvaluated = false
	r.Stats.CompromisedCount = 0
	for i := range r.Results {
		r.Results[i].Compromise = model.CompromiseNotEvaluated
	}

	data, err := JSON(r)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "not_evaluated", doc.Summary.CompromisedCount)
	assert.Empty(t, doc.CorpusSource)
	assert.NotContains(t, string(data), "corpus_source")
}

func TestJSON_InvalidUTF8PasswordKeepsExactBytes(t *testing.T) {
	r := sampleReport()
	raw := "caf\xe9!"
	r.Results[1].Password = raw
	r.Duplicates[0].Password = raw

	data, err := JSON(r)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Empty(t, doc.Results[0].PasswordB64, "valid UTF-8 has no raw copy")
	assert.NotContains(t, string(data), `"password_b64":""`)

	got, err := base64.StdEncoding.DecodeString(doc.Results[1].PasswordB64)
	require.NoError(t, err)
	assert.Equal(t, raw, string(got))
	assert.Equal(t, doc.Results[1].PasswordB64, doc.Duplicates[0].PasswordB64)
}

func TestToDocument_NilSlicesBecomeEmpty(t *testing.T) {
	doc := ToDocument(&model.Report{
		Evaluation: model.Evaluation{
			Results: []model.EvaluationResult{{CredentialRecord: model.CredentialRecord{ID: "x"}}},
		},
	})

	require.Len(t, doc.Results, 1)
	assert.NotNil(t, doc.Results[0].Suggestions)
	assert.NotNil(t, doc.Duplicates)
	assert.NotNil(t, doc.Skipped)
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleReport()))

	assert.Contains(t, md, "# Password audit report")
	assert.Contains(t, md, "| Total | 2 |")
	assert.Contains(t, md, "| Compromised | 1 |")
	assert.Contains(t, md, "## Weak passwords")
	assert.Contains(t, md, "## Compromised passwords")
	assert.Contains(t, md, "## Skipped records")
	assert.Contains(t, md, `pa\|ss\*&lt;b&gt;`, "password cell is escaped")
	assert.NotContains(t, md, "Str0ng!Pass |", "strong passwords are not listed")
}

func TestMarkdown_NotEvaluatedOmitsCompromisedSection(t *testing.T) {
	r := sampleReport()
	r.Stats.CompromiseEvaluated = false

	md := string(Markdown(r))

	assert.Contains(t, md, "| Compromised | not evaluated |")
	assert.Contains(t, md, "- Corpus: not evaluated")
	assert.NotContains(t, md, "## Compromised passwords")
}

func TestCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "", want: "*(empty)*"},
		{in: "-", want: "-"},
		{in: "*(empty)*", want: `\*(empty)\*`},
		{in: "plain", want: "plain"},
		{in: "a|b", want: `a\|b`},
		{in: "line\nbreak", want: "line break"},
		{in: "[x](y)", want: `\[x\](y)`},
		{in: `back\slash`, want: `back\\slash`},
		{in: "<script>", want: "&lt;script&gt;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cell(tt.in), tt.in)
	}
}

func TestHTML(t *testing.T) {
	r := sampleReport()
	r.Results[1].Password = "<script>alert(1)</script>"

	out, err := HTML(r)
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h2")
	assert.NotContains(t, page, "<script>")
}

func TestHTML_EmptyAndDashPasswordsDiffer(t *testing.T) {
	r := sampleReport()
	r.Results[0].Password = ""
	r.Results[0].IsStrong = false
	r.Results[1].Password = "-"

	out, err := HTML(r)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<td><em>(empty)</em></td>")
	assert.Contains(t, page, "<td>-</td>")
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleReport())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"1", "alice", "Str0ng!Pass", "true", "true", "true", "9", "false", ""}, rows[1])
	assert.Equal(t, "true", rows[2][7])
	assert.Equal(t, "Add uppercase letters. Add digits.", rows[2][8])
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(sampleReport(), model.ReportFormat("pdf"))
	require.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Total: 2\n")
	assert.Contains(t, out, "Compromised: 1\n")
	assert.Contains(t, out, "Skipped: 1\n")
}
