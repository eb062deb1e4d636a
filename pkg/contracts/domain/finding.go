package domain

// Check identifies the validator that produced a finding.
type Check string

const (
	CheckDuplicates Check = "duplicates"
	CheckDates      Check = "dates"
	CheckValidity   Check = "validity"
	CheckIdentity   Check = "identity"
)

// Severity of a finding. Info marks entries that report an automatic fix.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// Finding is one entry of an error report.
type Finding struct {
	Check     Check    `json:"check"`
	ReportKey string   `json:"report_key"`
	Message   string   `json:"message"`
	Group     int      `json:"group,omitempty"` // duplicate cluster, numbered from 1
	RefKey    string   `json:"ref_key,omitempty"`
	Severity  Severity `json:"severity"`
}

// IsError reports whether the finding is a data problem rather than a fix.
func (f Finding) IsError() bool {
	return f.Severity != SeverityInfo
}

// CountErrors returns how many findings are errors.
func CountErrors(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.IsError() {
			n++
		}
	}
	return n
}
