// Package report renders evaluation reports as JSON, Markdown, HTML and CSV
// and writes them to files.
package report

import (
	"encoding/base64"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// Document is the JSON representation of a report. The HTTP API serves the
// same shape.
type Document struct {
	RunID        string          `json:"run_id"`
	GeneratedAt  string          `json:"generated_at"`
	Source       string          `json:"source"`
	CorpusSource string          `json:"corpus_source,omitempty"`
	MinLength    int             `json:"min_length"`
	Summary      SummaryDocument `json:"summary"`
	Results      []ResultDoc     `json:"results"`
	Duplicates   []DuplicateDoc  `json:"duplicates"`
	Skipped      []SkippedDoc    `json:"skipped"`
}

// SummaryDocument holds the aggregate counts. CompromisedCount is a number
// when compromise checking ran and the string "not_evaluated" otherwise.
type SummaryDocument struct {
	Total            int `json:"total"`
	StrongCount      int `json:"strong_count"`
	WeakCount        int `json:"weak_count"`
	DuplicateCount   int `json:"duplicate_count"`
	CompromisedCount any `json:"compromised_count"`
	SkippedCount     int `json:"skipped_count"`
}

// ResultDoc is one evaluated record. JSON cannot carry invalid UTF-8, so for
// such passwords Password holds a lossy copy and PasswordB64 the exact bytes.
type ResultDoc struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	PasswordB64  string   `json:"password_b64,omitempty"`
	Row          int      `json:"row,omitempty"`
	LengthOK     bool     `json:"length_ok"`
	ComplexityOK bool     `json:"complexity_ok"`
	IsStrong     bool     `json:"is_strong"`
	Score        int      `json:"score"`
	Compromised  string   `json:"compromised"`
	Suggestions  []string `json:"suggestions"`
}

// DuplicateDoc is one repeated password value.
type DuplicateDoc struct {
	Password    string `json:"password"`
	PasswordB64 string `json:"password_b64,omitempty"`
	Count       int    `json:"count"`
}

// SkippedDoc is one record excluded from evaluation.
type SkippedDoc struct {
	Index  int    `json:"index"`
	Row    int    `json:"row,omitempty"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// ToDocument converts a report to its JSON representation.
func ToDocument(r *model.Report) Document {
	doc := Document{
		RunID:        r.RunID,
		GeneratedAt:  r.GeneratedAt.UTC().Format(time.RFC3339),
		Source:       r.Source,
		CorpusSource: r.CorpusSource,
		MinLength:    r.MinLength,
		Summary:      Summary(r.Stats),
		Results:      make([]ResultDoc, 0, len(r.Results)),
		Duplicates:   make([]DuplicateDoc, 0, len(r.Duplicates)),
		Skipped:      make([]SkippedDoc, 0, len(r.Skipped)),
	}

	for _, res := range r.Results {
		suggestions := res.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		doc.Results = append(doc.Results, ResultDoc{
			ID:           res.ID,
			Username:     res.Username,
			Password:     res.Password,
			PasswordB64:  rawPassword(res.Password),
			Row:          res.Row,
			LengthOK:     res.LengthOK,
			ComplexityOK: res.ComplexityOK,
			IsStrong:     res.IsStrong,
			Score:        res.Score,
			Compromised:  string(res.Compromise),
			Suggestions:  suggestions,
		})
	}
	for _, d := range r.Duplicates {
		doc.Duplicates = append(doc.Duplicates, DuplicateDoc{
			Password:    d.Password,
			PasswordB64: rawPassword(d.Password),
			Count:       d.Count,
		})
	}
	for _, s := range r.Skipped {
		doc.Skipped = append(doc.Skipped, SkippedDoc{Index: s.Index, Row: s.Row, ID: s.ID, Reason: s.Reason})
	}

	return doc
}

// rawPassword returns the base64 of p when p is not valid UTF-8, and "" when
// the plain JSON string already round-trips.
func rawPassword(p string) string {
	if utf8.ValidString(p) {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(p))
}

// Summary converts aggregate counts.
func Summary(stats model.Aggregates) SummaryDocument {
	return SummaryDocument{
		Total:            stats.Total,
		StrongCount:      stats.StrongCount,
		WeakCount:        stats.WeakCount,
		DuplicateCount:   stats.DuplicateCount,
		CompromisedCount: CompromisedValue(stats),
		SkippedCount:     stats.SkippedCount,
	}
}

// CompromisedValue returns the compromised count, or "not_evaluated" when no
// corpus was checked.
func CompromisedValue(stats model.Aggregates) any {
	if !stats.CompromiseEvaluated {
		return string(model.CompromiseNotEvaluated)
	}
	return stats.CompromisedCount
}
