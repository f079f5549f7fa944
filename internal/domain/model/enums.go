package model

// CompromiseStatus is the outcome of looking a password up in the corpus.
type CompromiseStatus string

const (
	CompromiseFound        CompromiseStatus = "compromised"
	CompromiseClean        CompromiseStatus = "clean"
	CompromiseNotEvaluated CompromiseStatus = "not_evaluated" // No corpus was loaded for the run.
)

// ReportFormat names a file representation of a report.
type ReportFormat string

const (
	ReportFormatJSON     ReportFormat = "json"
	ReportFormatMarkdown ReportFormat = "markdown"
	ReportFormatHTML     ReportFormat = "html"
	ReportFormatCSV      ReportFormat = "csv"
)

// ParseReportFormat maps a configured name to a ReportFormat. "md" is
// accepted as an alias for markdown.
func ParseReportFormat(name string) (ReportFormat, bool) {
	switch name {
	case "json":
		return ReportFormatJSON, true
	case "markdown", "md":
		return ReportFormatMarkdown, true
	case "html":
		return ReportFormatHTML, true
	case "csv":
		return ReportFormatCSV, true
	default:
		return "", false
	}
}
