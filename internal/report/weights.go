package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// WeightColumns is the number of weight columns of the special score table:
// tiers A to C, regular and local.
const WeightColumns = 6

// ValidationError describes a bad scoring parameter.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return ve.Message
}

// WeightTable holds the exception weights of positive certidões, one row
// per document type and one column per tier and locality.
type WeightTable struct {
	rows map[string][]float64
}

// NewWeightTable creates an empty table.
func NewWeightTable() *WeightTable {
	return &WeightTable{rows: make(map[string][]float64)}
}

// Set stores the weight columns of a document type. Column 1 is the first
// element of weights.
func (w *WeightTable) Set(docType string, weights []float64) {
	w.rows[strings.TrimSpace(docType)] = append([]float64(nil), weights...)
}

// Types lists the document types with exception weights, sorted.
func (w *WeightTable) Types() []string {
	out := make([]string, 0, len(w.rows))
	for t := range w.rows {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len is the number of document types in the table.
func (w *WeightTable) Len() int {
	if w == nil {
		return 0
	}
	return len(w.rows)
}

// Column picks the weight column for a tier and locality: tier + 3*local.
func Column(tier int, local bool) int {
	if local {
		return tier + 3
	}
	return tier
}

// Exceptions returns the weight of every document type for the given
// column. Types whose row is shorter than the column have no exception.
func (w *WeightTable) Exceptions(column int) map[string]float64 {
	out := make(map[string]float64)
	if w == nil || column < 1 {
		return out
	}
	for t, weights := range w.rows {
		if column <= len(weights) {
			out[t] = weights[column-1]
		}
	}
	return out
}

// TierIndex maps an ABC curve letter to its index, 'A' = 1 ... 'Z' = 26.
func TierIndex(letter string) (int, error) {
	l := strings.TrimSpace(letter)
	r := []rune(l)
	if len(r) != 1 || r[0] > unicode.MaxASCII || !unicode.IsLetter(r[0]) {
		return 0, ValidationError{Field: "tier", Message: fmt.Sprintf("invalid tier %q: want a single letter A-Z", letter), Value: letter}
	}
	return int(unicode.ToUpper(r[0])-'A') + 1, nil
}
