package report

import (
	"sort"

	"certaudit/pkg/contracts/domain"
)

// Sheet holds one outcome per entity and document type. When an entity has
// several certidões of a type, the most severe outcome wins.
type Sheet struct {
	Entities []string                             `json:"entities"`
	Types    []string                             `json:"types"`
	Cells    map[string]map[string]domain.Outcome `json:"cells"`
}

// BuildSheet pivots records by tax ID and document type. Rows without a tax
// ID are left out; entities and types are sorted.
func BuildSheet(records []domain.Record) *Sheet {
	s := &Sheet{Cells: make(map[string]map[string]domain.Outcome)}
	types := make(map[string]bool)

	for _, r := range records {
		if r.TaxID == "" {
			continue
		}
		t := r.DocumentType()
		row, ok := s.Cells[r.TaxID]
		if !ok {
			row = make(map[string]domain.Outcome)
			s.Cells[r.TaxID] = row
			s.Entities = append(s.Entities, r.TaxID)
		}
		if !types[t] {
			types[t] = true
			s.Types = append(s.Types, t)
		}
		if cur, seen := row[t]; !seen || r.Outcome.Worse(cur) {
			row[t] = r.Outcome
		}
	}

	sort.Strings(s.Entities)
	sort.Strings(s.Types)
	return s
}

// Outcome returns the cell for entity and docType.
func (s *Sheet) Outcome(entity, docType string) domain.Outcome {
	return s.Cells[entity][docType]
}

// Row returns the outcomes of an entity in Types order.
func (s *Sheet) Row(entity string) []domain.Outcome {
	out := make([]domain.Outcome, len(s.Types))
	for j, t := range s.Types {
		out[j] = s.Outcome(entity, t)
	}
	return out
}

// Mask returns the color codes of every cell, entities by types.
func (s *Sheet) Mask() [][]int {
	mask := make([][]int, len(s.Entities))
	for i, e := range s.Entities {
		mask[i] = make([]int, len(s.Types))
		for j, o := range s.Row(e) {
			mask[i][j] = MaskFor(o)
		}
	}
	return mask
}
