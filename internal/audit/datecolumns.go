package audit

import (
	"fmt"
	"strings"

	"certaudit/pkg/contracts/domain"
)

const (
	msgDateValueTmpl = "Date problem: column [%s] value [%s]"
	msgDateEmptyTmpl = "Date problem: column [%s] is empty"
)

// CheckDateColumns validates every date column of every row. A row gets one
// finding per bad column, so it may appear more than once.
func CheckDateColumns(records []domain.Record, fields []domain.Field, layout string, reportField domain.Field, nullIsError bool) []domain.Finding {
	if reportField == "" {
		reportField = domain.FieldURL
	}
	var findings []domain.Finding
	for _, r := range records {
		for _, f := range fields {
			v := strings.TrimSpace(r.Get(f))
			var msg string
			switch {
			case v == "" && nullIsError:
				msg = fmt.Sprintf(msgDateEmptyTmpl, f)
			case v == "":
				continue
			default:
				if _, ok := ParseDate(v, layout); ok {
					continue
				}
				msg = fmt.Sprintf(msgDateValueTmpl, f, v)
			}
			findings = append(findings, domain.Finding{
				Check:     domain.CheckDates,
				ReportKey: r.Get(reportField),
				Message:   msg,
				Severity:  domain.SeverityError,
			})
		}
	}
	return findings
}
