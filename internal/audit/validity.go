package audit

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"certaudit/pkg/contracts/domain"
)

const (
	MsgBothDatesEmpty    = "Issuance and validity dates both empty"
	MsgValidityCount     = "problem in validity value [empty]"
	MsgIssuanceMissing   = "Issuance date invalid or empty: cannot compute validity"
	msgValidityEmptyTmpl = "Validity problem: column [%s] is empty"
	msgValidityValueTmpl = "problem in validity value [%s]"
	msgExpiredTmpl       = "Expired: valid until [%s]"
)

// ErrInvalidReferenceDate means the whole validity pass was skipped.
var ErrInvalidReferenceDate = errors.New("invalid reference date")

// ValidityOptions configures CheckValidity. Zero values select the
// defaults of DefaultValidityOptions.
type ValidityOptions struct {
	ValidityField domain.Field
	IssuedField   domain.Field
	ReportField   domain.Field
	// NullIsError reports rows whose validity is blank.
	NullIsError bool
	// ReferenceDate is compared against the computed end of validity;
	// empty means today.
	ReferenceDate string
	Layout        string
	DayTokens     []string
	MonthTokens   []string
	// Now is the clock used when ReferenceDate is empty.
	Now func() time.Time
}

// DefaultValidityOptions returns the options matching the certidão sheet.
func DefaultValidityOptions() ValidityOptions {
	return ValidityOptions{
		ValidityField: domain.FieldValidity,
		IssuedField:   domain.FieldIssuedAt,
		ReportField:   domain.FieldURL,
		Layout:        DefaultLayout,
		DayTokens:     []string{"dias", "dia", "days", "day"},
		MonthTokens:   []string{"meses", "mes", "mês", "months", "month"},
		Now:           time.Now,
	}
}

func (o ValidityOptions) withDefaults() ValidityOptions {
	d := DefaultValidityOptions()
	if o.ValidityField == "" {
		o.ValidityField = d.ValidityField
	}
	if o.IssuedField == "" {
		o.IssuedField = d.IssuedField
	}
	if o.ReportField == "" {
		o.ReportField = d.ReportField
	}
	if o.Layout == "" {
		o.Layout = d.Layout
	}
	if len(o.DayTokens) == 0 {
		o.DayTokens = d.DayTokens
	}
	if len(o.MonthTokens) == 0 {
		o.MonthTokens = d.MonthTokens
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// ReferenceDay resolves the date validity is checked against.
func (o ValidityOptions) ReferenceDay() (time.Time, error) {
	o = o.withDefaults()
	ref := strings.TrimSpace(o.ReferenceDate)
	if ref == "" {
		return truncateDay(o.Now()), nil
	}
	t, ok := ParseDate(ref, o.Layout)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReferenceDate, o.ReferenceDate)
	}
	return t, nil
}

// CheckValidity computes when each certidão stops being valid, from its
// issuance date plus a validity expressed as a date, a day count or a month
// count, and reports the ones expired at the reference date together with
// unreadable validity data. An unparseable reference date skips every row
// and returns ErrInvalidReferenceDate with no findings.
//
// An explicit validity date is turned into a span of |validity - issuance|
// days added to the issuance date, so a validity date that falls before
// issuance is mirrored forward: issued 01/03/2024 with validity 01/01/2024
// is valid until 30/04/2024.
func CheckValidity(records []domain.Record, opts ValidityOptions) ([]domain.Finding, error) {
	opts = opts.withDefaults()
	ref, err := opts.ReferenceDay()
	if err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for _, r := range records {
		if msg, bad := checkRecordValidity(r, opts, ref); bad {
			findings = append(findings, domain.Finding{
				Check:     domain.CheckValidity,
				ReportKey: r.Get(opts.ReportField),
				Message:   msg,
				Severity:  domain.SeverityError,
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Message != findings[j].Message {
			return findings[i].Message < findings[j].Message
		}
		return findings[i].ReportKey < findings[j].ReportKey
	})
	return findings, nil
}

func checkRecordValidity(r domain.Record, opts ValidityOptions, ref time.Time) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(r.Get(opts.ValidityField)))
	e := strings.TrimSpace(r.Get(opts.IssuedField))

	if v == "" && opts.NullIsError {
		return fmt.Sprintf(msgValidityEmptyTmpl, opts.ValidityField), true
	}
	if v == "" && e == "" {
		return MsgBothDatesEmpty, true
	}

	issued, issuedOK := ParseDate(e, opts.Layout)

	var validUntil time.Time
	switch {
	case containsAny(v, opts.DayTokens):
		days, ok := leadingInt(v)
		if !ok {
			return MsgValidityCount, true
		}
		if !issuedOK {
			return MsgIssuanceMissing, true
		}
		validUntil = issued.AddDate(0, 0, days)

	case containsAny(v, opts.MonthTokens):
		months, ok := leadingInt(v)
		if !ok {
			return MsgValidityCount, true
		}
		if !issuedOK {
			return MsgIssuanceMissing, true
		}
		validUntil = issued.AddDate(0, 0, daysBetween(issued, AddMonths(issued, months)))

	default:
		if v == "" {
			// issuance present, validity open-ended
			return "", false
		}
		explicit, ok := ParseDate(v, opts.Layout)
		if !ok {
			return fmt.Sprintf(msgValidityValueTmpl, v), true
		}
		if issuedOK {
			// absolute span; an earlier validity date is mirrored past issuance
			validUntil = issued.AddDate(0, 0, daysBetween(issued, explicit))
		} else {
			validUntil = explicit
		}
	}

	if validUntil.Before(ref) {
		return fmt.Sprintf(msgExpiredTmpl, FormatDate(validUntil, DefaultLayout)), true
	}
	return "", false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// leadingInt reads the integer a validity text starts with ("180 dias").
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
