package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/report"
)

// ParseWeights reads the special score table: the first row is a header,
// then one row per document type with report.WeightColumns weights. A
// blank weight cell means no exception and counts as a regular positive.
func ParseWeights(filePath string) (*report.WeightTable, error) {
	rows, err := readSheet(filePath, func(row []string) bool { return !isBlankRow(row) })
	if err != nil {
		return nil, err
	}
	table, err := ParseWeightRows(rows[1:])
	if err != nil {
		return nil, apperrors.NewParsingError("invalid weight table", err).WithContext("path", filePath)
	}
	return table, nil
}

// ParseWeightRows builds a weight table from data rows (no header).
// Decimal commas are accepted.
func ParseWeightRows(rows [][]string) (*report.WeightTable, error) {
	table := report.NewWeightTable()
	for i, row := range rows {
		docType := cell(row, 0)
		if docType == "" {
			if isBlankRow(row) {
				continue
			}
			return nil, fmt.Errorf("row %d has weights but no document type", i+2)
		}

		weights := make([]float64, report.WeightColumns)
		for c := 0; c < report.WeightColumns; c++ {
			raw := cell(row, c+1)
			if raw == "" {
				weights[c] = 1
				continue
			}
			v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: invalid weight %q", i+2, c+1, raw)
			}
			weights[c] = v
		}
		table.Set(docType, weights)
	}
	return table, nil
}
