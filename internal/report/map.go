package report

import (
	"fmt"
	"sort"
	"strings"

	"certaudit/pkg/contracts/domain"
)

// DefaultOutcomes is the order used by the "all" filter and by total columns.
var DefaultOutcomes = []domain.Outcome{
	domain.OutcomeNegative,
	domain.OutcomePositive,
	domain.OutcomePositiveNegative,
}

// ParseOutcomeFilter reads "all" or a comma separated list of outcome
// codes (P, N, PN).
func ParseOutcomeFilter(filter string) ([]domain.Outcome, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return append([]domain.Outcome(nil), DefaultOutcomes...), nil
	}

	var out []domain.Outcome
	seen := make(map[domain.Outcome]bool)
	for _, part := range strings.Split(filter, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		var o domain.Outcome
		switch code {
		case "P":
			o = domain.OutcomePositive
		case "N":
			o = domain.OutcomeNegative
		case "PN":
			o = domain.OutcomePositiveNegative
		default:
			return nil, ValidationError{Field: "outcomes", Message: fmt.Sprintf("unknown outcome code %q", part), Value: filter}
		}
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out, nil
}

// MapColumn is one column of the map report.
type MapColumn struct {
	Label   string         `json:"label"`
	Type    string         `json:"type"`
	Outcome domain.Outcome `json:"outcome"`
	Total   bool           `json:"total"`
}

// Map counts certidões per entity and "<type><outcome>" column, optionally
// followed by one total column per selected outcome.
type Map struct {
	Entities []string    `json:"entities"`
	Columns  []MapColumn `json:"columns"`
	Counts   [][]int     `json:"counts"`
}

// ColumnLabel builds the short column name: the document type followed by
// the two-character outcome code ("CNDTP ", "FGTSPN").
func ColumnLabel(docType string, o domain.Outcome) string {
	return docType + fmt.Sprintf("%-2s", o.Code())
}

// TotalLabel is the header of a total column.
func TotalLabel(o domain.Outcome) string {
	return "Tot " + o.Code()
}

// BuildMap counts records per tax ID for the selected outcomes. Rows without
// tax ID or with an unselected outcome are ignored.
func BuildMap(records []domain.Record, outcomes []domain.Outcome, totals bool) *Map {
	if len(outcomes) == 0 {
		outcomes = DefaultOutcomes
	}
	selected := make(map[domain.Outcome]bool, len(outcomes))
	for _, o := range outcomes {
		selected[o] = true
	}

	counts := make(map[string]map[string]int)
	cols := make(map[string]MapColumn)
	for _, r := range records {
		if r.TaxID == "" || !selected[r.Outcome] {
			continue
		}
		t := r.DocumentType()
		label := ColumnLabel(t, r.Outcome)
		if _, ok := cols[label]; !ok {
			cols[label] = MapColumn{Label: label, Type: t, Outcome: r.Outcome}
		}
		if counts[r.TaxID] == nil {
			counts[r.TaxID] = make(map[string]int)
		}
		counts[r.TaxID][label]++
	}

	m := &Map{}
	for e := range counts {
		m.Entities = append(m.Entities, e)
	}
	sort.Strings(m.Entities)
	for _, c := range cols {
		m.Columns = append(m.Columns, c)
	}
	sort.Slice(m.Columns, func(i, j int) bool { return m.Columns[i].Label < m.Columns[j].Label })

	data := len(m.Columns)
	if totals {
		for _, o := range outcomes {
			m.Columns = append(m.Columns, MapColumn{Label: TotalLabel(o), Outcome: o, Total: true})
		}
	}

	m.Counts = make([][]int, len(m.Entities))
	for i, e := range m.Entities {
		row := make([]int, len(m.Columns))
		for j, c := range m.Columns[:data] {
			row[j] = counts[e][c.Label]
		}
		for j := data; j < len(m.Columns); j++ {
			for k, c := range m.Columns[:data] {
				if c.Outcome == m.Columns[j].Outcome {
					row[j] += row[k]
				}
			}
		}
		m.Counts[i] = row
	}
	return m
}

// Mask returns the color codes of the map. Count cells are colored by their
// column outcome when non-zero; total columns get 40, 50, 60 in order.
func (m *Map) Mask() [][]int {
	mask := make([][]int, len(m.Counts))
	for i, row := range m.Counts {
		mask[i] = make([]int, len(row))
		total := 0
		for j, c := range m.Columns {
			switch {
			case c.Total:
				mask[i][j] = MaskTotal + 10*total
				total++
			case row[j] != 0:
				mask[i][j] = MaskFor(c.Outcome)
			}
		}
	}
	return mask
}
