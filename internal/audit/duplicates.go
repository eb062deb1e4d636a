package audit

import (
	"sort"
	"strings"

	"certaudit/pkg/contracts/domain"
)

// MsgDuplicate is reported for every member of a duplicate cluster.
const MsgDuplicate = "Possible duplicate document."

// ProcessIndex resolves the composite process string of positive
// certidões: every process number filed under a name, ascending,
// concatenated without separator.
type ProcessIndex map[string]string

// NewProcessIndex builds the index from the positive-filing table.
func NewProcessIndex(filings []domain.PositiveFiling) ProcessIndex {
	byName := make(map[string][]string)
	for _, f := range filings {
		byName[f.Name] = append(byName[f.Name], f.ProcessNumber)
	}
	idx := make(ProcessIndex, len(byName))
	for name, procs := range byName {
		sort.Strings(procs)
		idx[name] = strings.Join(procs, "")
	}
	return idx
}

// Composite returns the process string for a record; only positive
// certidões carry one.
func (p ProcessIndex) Composite(r domain.Record) string {
	if r.Outcome != domain.OutcomePositive {
		return ""
	}
	return p[r.Name]
}

type dupGroup struct {
	key     []string
	members []int
}

// FindDuplicates reports records that agree on every groupFields value
// (blank equals blank) and, for positive certidões, on the composite
// process string. Clusters are numbered from 1 in key order and each
// member gets one finding carrying its reportField value.
func FindDuplicates(records []domain.Record, filings []domain.PositiveFiling, groupFields []domain.Field, reportField domain.Field) []domain.Finding {
	if len(records) < 2 || len(groupFields) == 0 {
		return nil
	}
	if reportField == "" {
		reportField = domain.FieldURL
	}

	// first pass: rows whose key appears more than once
	counts := make(map[string]int, len(records))
	keys := make([][]string, len(records))
	for i, r := range records {
		keys[i] = fieldValues(r, groupFields)
		counts[joinKey(keys[i])]++
	}

	procs := NewProcessIndex(filings)
	groups := make(map[string]*dupGroup)
	for i, r := range records {
		if counts[joinKey(keys[i])] < 2 {
			continue
		}
		full := append(append([]string{}, keys[i]...), procs.Composite(r))
		k := joinKey(full)
		g, ok := groups[k]
		if !ok {
			g = &dupGroup{key: full}
			groups[k] = g
		}
		g.members = append(g.members, i)
	}

	clusters := make([]*dupGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.members) > 1 {
			clusters = append(clusters, g)
		}
	}
	sort.Slice(clusters, func(i, j int) bool {
		return lessKey(clusters[i].key, clusters[j].key)
	})

	var findings []domain.Finding
	for n, g := range clusters {
		for _, i := range g.members {
			findings = append(findings, domain.Finding{
				Check:     domain.CheckDuplicates,
				ReportKey: records[i].Get(reportField),
				Message:   MsgDuplicate,
				Group:     n + 1,
				Severity:  domain.SeverityError,
			})
		}
	}
	return findings
}

func fieldValues(r domain.Record, fields []domain.Field) []string {
	vals := make([]string, len(fields))
	for i, f := range fields {
		vals[i] = r.Get(f)
	}
	return vals
}

// unit separator keeps ("a b", "c") and ("a", "b c") apart
func joinKey(vals []string) string {
	return strings.Join(vals, "\x1f")
}

func lessKey(a, b []string) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
