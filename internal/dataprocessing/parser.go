package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "certaudit/internal/errors"
	"certaudit/pkg/contracts/domain"
)

// headerScanRows bounds how far down a sheet the header row is looked for.
const headerScanRows = 10

// ParseCaseFile reads the main certidão table of a workbook.
func ParseCaseFile(filePath string, headers map[string]domain.Field) ([]domain.Record, error) {
	rows, err := readSheet(filePath, func(row []string) bool {
		return matchedHeaders(row, headers) >= 2
	})
	if err != nil {
		return nil, err
	}

	records, err := ParseCaseRows(rows, headers)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid case file", err).WithContext("path", filePath)
	}
	return records, nil
}

// ParseCaseRows converts sheet rows into records. The first row whose
// cells match at least two configured headers is the header row; rows
// before it are ignored, as are rows with no non-blank cell.
func ParseCaseRows(rows [][]string, headers map[string]domain.Field) ([]domain.Record, error) {
	headerRow := -1
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if matchedHeaders(rows[i], headers) >= 2 {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("header row not found in the first %d rows", headerScanRows)
	}

	columns := make([]domain.Field, len(rows[headerRow]))
	seen := make(map[domain.Field]bool)
	for j, cell := range rows[headerRow] {
		h := strings.TrimSpace(cell)
		if h == "" {
			continue
		}
		f, ok := headers[h]
		if !ok {
			f = domain.Field(h)
		}
		if seen[f] {
			return nil, fmt.Errorf("column %q appears twice", h)
		}
		seen[f] = true
		columns[j] = f
	}

	var records []domain.Record
	for _, row := range rows[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		var r domain.Record
		for j, f := range columns {
			if f == "" || j >= len(row) {
				continue
			}
			r.Set(f, strings.TrimSpace(row[j]))
		}
		records = append(records, r)
	}
	return records, nil
}

// ParseSuppliers reads the supplier table. Tier letters are upper-cased;
// the local flag accepts 1/true/sim/s.
func ParseSuppliers(filePath string, taxIDHeader, tierHeader, localHeader string) ([]domain.Supplier, error) {
	want := []string{taxIDHeader, tierHeader, localHeader}
	rows, err := readSheet(filePath, func(row []string) bool {
		return len(indexHeaders(row, want)) == len(want)
	})
	if err != nil {
		return nil, err
	}

	idx := indexHeaders(rows[0], want)
	var suppliers []domain.Supplier
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		s := domain.Supplier{
			TaxID: cell(row, idx[taxIDHeader]),
			Tier:  strings.ToUpper(cell(row, idx[tierHeader])),
			Local: parseFlag(cell(row, idx[localHeader])),
		}
		if s.TaxID == "" {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d has no tax ID", i+2), nil).
				WithContext("path", filePath)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, nil
}

// readSheet returns the rows of the first sheet, starting at the first row
// accepted by isHeader.
func readSheet(filePath string, isHeader func([]string) bool) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", filePath)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read sheet", err).
				WithContext("path", filePath).
				WithContext("sheet", name)
		}
		for i := 0; i < len(rows) && i < headerScanRows; i++ {
			if isHeader(rows[i]) {
				return rows[i:], nil
			}
		}
	}
	return nil, apperrors.NewParsingError("no sheet with the expected headers", nil).WithContext("path", filePath)
}

func matchedHeaders(row []string, headers map[string]domain.Field) int {
	n := 0
	for _, c := range row {
		if _, ok := headers[strings.TrimSpace(c)]; ok {
			n++
		}
	}
	return n
}

func indexHeaders(row []string, names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for j, c := range row {
		c = strings.TrimSpace(c)
		for _, n := range names {
			if c == n {
				if _, dup := idx[n]; !dup {
					idx[n] = j
				}
			}
		}
	}
	return idx
}

func cell(row []string, j int) string {
	if j < 0 || j >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[j])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "sim", "s", "yes", "y":
		return true
	}
	return false
}
