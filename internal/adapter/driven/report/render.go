package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlSanitizer = bluemonday.UGCPolicy()
}

// CSVHeader lists the columns of the CSV rendering.
var CSVHeader = []string{
	"id", "username", "password", "length_ok", "complexity_ok",
	"is_strong", "score", "compromised", "suggestions",
}

// Render renders r in format f.
func Render(r *model.Report, f model.ReportFormat) ([]byte, error) {
	switch f {
	case model.ReportFormatJSON:
		return JSON(r)
	case model.ReportFormatMarkdown:
		return Markdown(r), nil
	case model.ReportFormatHTML:
		return HTML(r)
	case model.ReportFormatCSV:
		return CSV(r)
	default:
		return nil, fmt.Errorf("unsupported report format %q", f)
	}
}

// JSON renders the report Document, indented.
func JSON(r *model.Report) ([]byte, error) {
	return json.MarshalIndent(ToDocument(r), "", "  ")
}

// Markdown renders a human-readable report: summary, weak, compromised and
// duplicate passwords, and skipped records.
func Markdown(r *model.Report) []byte {
	var b strings.Builder

	b.WriteString("# Password audit report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Generated: `%s`\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Source: %s\n", cell(r.Source))
	if r.Stats.CompromiseEvaluated {
		fmt.Fprintf(&b, "- Corpus: %s\n", cell(r.CorpusSource))
	} else {
		b.WriteString("- Corpus: not evaluated\n")
	}
	fmt.Fprintf(&b, "- Minimum length: %d\n\n", r.MinLength)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", r.Stats.Total)
	fmt.Fprintf(&b, "| Strong | %d |\n", r.Stats.StrongCount)
	fmt.Fprintf(&b, "| Weak | %d |\n", r.Stats.WeakCount)
	fmt.Fprintf(&b, "| Duplicated values | %d |\n", r.Stats.DuplicateCount)
	fmt.Fprintf(&b, "| Compromised | %s |\n", compromisedText(r.Stats))
	fmt.Fprintf(&b, "| Skipped | %d |\n\n", r.Stats.SkippedCount)

	var weak, compromised []model.EvaluationResult
	for _, res := range r.Results {
		if !res.IsStrong {
			weak = append(weak, res)
		}
		if res.IsCompromised() {
			compromised = append(compromised, res)
		}
	}

	b.WriteString("## Weak passwords\n\n")
	if len(weak) == 0 {
		b.WriteString("No weak passwords.\n\n")
	} else {
		b.WriteString("| ID | Username | Password | Score | Suggestions |\n|---|---|---|---|---|\n")
		for _, res := range weak {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				cell(res.ID), cell(res.Username), cell(res.Password), res.Score,
				cell(strings.Join(res.Suggestions, " ")))
		}
		b.WriteString("\n")
	}

	if r.Stats.CompromiseEvaluated {
		b.WriteString("## Compromised passwords\n\n")
		if len(compromised) == 0 {
			b.WriteString("No passwords found in the corpus.\n\n")
		} else {
			b.WriteString("| ID | Username | Password |\n|---|---|---|\n")
			for _, res := range compromised {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(res.ID), cell(res.Username), cell(res.Password))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Duplicate passwords\n\n")
	if len(r.Duplicates) == 0 {
		b.WriteString("No duplicate passwords.\n\n")
	} else {
		b.WriteString("| Password | Occurrences |\n|---|---|\n")
		for _, d := range r.Duplicates {
			fmt.Fprintf(&b, "| %s | %d |\n", cell(d.Password), d.Count)
		}
		b.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		b.WriteString("## Skipped records\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "- #%d: %s\n", s.Index, cell(s.Reason))
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// HTML renders the Markdown report as a sanitized standalone HTML page.
func HTML(r *model.Report) ([]byte, error) {
	var body bytes.Buffer
	if err := mdRenderer.Convert(Markdown(r), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>Password audit %s</title>\n", html.EscapeString(r.RunID))
	page.WriteString(pageStyle)
	page.WriteString("</head>\n<body>\n")
	page.WriteString(htmlSanitizer.Sanitize(body.String()))
	page.WriteString("\n</body>\n</html>\n")
	return page.Bytes(), nil
}

const pageStyle = `<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;margin-bottom:1rem}
th,td{border:1px solid #ccc;padding:.25rem .5rem;text-align:left}
th{background:#f3f3f3}
</style>
`

// CSV renders one row per evaluated record with CSVHeader columns.
func CSV(r *model.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV streams the CSV rendering to w.
func WriteCSV(w io.Writer, r *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range r.Results {
		row := []string{
			res.ID,
			res.Username,
			res.Password,
			strconv.FormatBool(res.LengthOK),
			strconv.FormatBool(res.ComplexityOK),
			strconv.FormatBool(res.IsStrong),
			strconv.Itoa(res.Score),
			csvCompromised(res.Compromise),
			strings.Join(res.Suggestions, " "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvCompromised(s model.CompromiseStatus) string {
	switch s {
	case model.CompromiseFound:
		return "true"
	case model.CompromiseClean:
		return "false"
	default:
		return string(model.CompromiseNotEvaluated)
	}
}

// WriteSummary writes the aggregate counts as plain text.
func WriteSummary(w io.Writer, r *model.Report) error {
	_, err := fmt.Fprintf(w,
		"Run %s\nSource: %s\nTotal: %d\nStrong: %d\nWeak: %d\nDuplicated values: %d\nCompromised: %s\nSkipped: %d\n",
		r.RunID, r.Source, r.Stats.Total, r.Stats.StrongCount, r.Stats.WeakCount,
		r.Stats.DuplicateCount, compromisedText(r.Stats), r.Stats.SkippedCount,
	)
	return err
}

func compromisedText(stats model.Aggregates) string {
	if !stats.CompromiseEvaluated {
		return "not evaluated"
	}
	return strconv.Itoa(stats.CompromisedCount)
}

var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", " ",
	"\n", " ",
	"\t", " ",
)

// emptyCell marks an empty value. Its emphasis markers cannot come from
// cellEscaper output, so no literal value renders the same.
const emptyCell = "*(empty)*"

// cell escapes s for use inside a Markdown table cell or list item so that
// arbitrary passwords render literally.
func cell(s string) string {
	if s == "" {
		return emptyCell
	}
	return cellEscaper.Replace(s)
}
