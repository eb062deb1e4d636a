package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"certaudit/internal/config"
	apperrors "certaudit/internal/errors"
	"certaudit/internal/report"
	"certaudit/pkg/contracts/domain"
)

// Sheet names of the generated workbooks.
const (
	SheetFindings = "Erros"
	SheetMap      = "Mapa"
	SheetOutcomes = "Sheet"
	SheetScores   = "Pontuação"
)

// maskColors are the fills of each mask code.
var maskColors = map[int]string{
	report.MaskBlank:            "FFFFFF",
	report.MaskPositive:         "FF0000",
	report.MaskPositiveNegative: "FFFF00",
	report.MaskNegative:         "00FF00",
	report.MaskTotal:            "DCDCDC",
	report.MaskTotal + 10:       "D3D3D3",
	report.MaskTotal + 20:       "C0C0C0",
}

var bandMasks = map[report.RiskBand]int{
	report.RiskHigh:   report.MaskPositive,
	report.RiskMedium: report.MaskPositiveNegative,
	report.RiskLow:    report.MaskNegative,
}

// XLSXExporter writes report workbooks to the reports directory.
type XLSXExporter struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewXLSXExporter creates an exporter stamping files with the current time.
func NewXLSXExporter(paths *config.Paths, logger *slog.Logger) *XLSXExporter {
	return &XLSXExporter{
		paths:  paths,
		logger: logger.With(slog.String("component", "xlsx_exporter")),
		now:    time.Now,
	}
}

// ReportsDir is the directory reports are written to.
func (e *XLSXExporter) ReportsDir() string { return e.paths.ReportsDir }

// Now is the time stamped on report file names.
func (e *XLSXExporter) Now() time.Time { return e.now() }

// ExportFindings writes the finding report of a check. No file is written
// for an empty report and the returned path is "".
func (e *XLSXExporter) ExportFindings(check domain.Check, folder string, findings []domain.Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}

	w, err := newWorkbook(SheetFindings)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := w.header(findingColumns(check)); err != nil {
		return "", err
	}
	linkCols := map[string]bool{"Url": true, "Url Referência": true}
	cols := findingColumns(check)
	for i, f := range findings {
		row := findingRow(check, f)
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if linkCols[cols[j]] && isLink(v) {
				if err := w.link(cell, v); err != nil {
					return "", err
				}
				continue
			}
			var value interface{} = v
			if cols[j] == "Grupo" {
				value = f.Group
			}
			if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
				return "", err
			}
		}
	}
	return e.save(w, ReportFor(check), folder)
}

// ExportMap writes the certidão map: one row per entity, counts per
// column, cells filled by mask code.
func (e *XLSXExporter) ExportMap(folder string, m *report.Map) (string, error) {
	if m == nil || len(m.Entities) == 0 {
		return "", nil
	}

	w, err := newWorkbook(SheetMap)
	if err != nil {
		return "", err
	}
	defer w.Close()

	header := []string{"CPF/CNPJ"}
	for _, c := range m.Columns {
		header = append(header, c.Label)
	}
	if err := w.header(header); err != nil {
		return "", err
	}

	mask := m.Mask()
	for i, entity := range m.Entities {
		row := []interface{}{entity}
		for j, c := range m.Columns {
			n := m.Counts[i][j]
			if n == 0 && !c.Total {
				row = append(row, nil)
				continue
			}
			row = append(row, n)
		}
		if err := w.row(i+2, row, mask[i]); err != nil {
			return "", err
		}
	}
	return e.save(w, ReportMap, folder)
}

// ExportSheet writes one outcome per entity and document type.
func (e *XLSXExporter) ExportSheet(folder string, s *report.Sheet, locale domain.Locale) (string, error) {
	if s == nil || len(s.Entities) == 0 {
		return "", nil
	}

	w, err := newWorkbook(SheetOutcomes)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := w.header(append([]string{"CPF/CNPJ"}, s.Types...)); err != nil {
		return "", err
	}
	mask := s.Mask()
	for i, entity := range s.Entities {
		row := []interface{}{entity}
		for _, o := range s.Row(entity) {
			row = append(row, o.Label(locale))
		}
		if err := w.row(i+2, row, mask[i]); err != nil {
			return "", err
		}
	}
	return e.save(w, ReportSheet, folder)
}

// ExportScores writes the supplier scorecard, each row filled with the
// color of its risk band.
func (e *XLSXExporter) ExportScores(folder string, card *report.Scorecard) (string, error) {
	if card == nil || len(card.Scores) == 0 {
		return "", nil
	}

	w, err := newWorkbook(SheetScores)
	if err != nil {
		return "", err
	}
	defer w.Close()

	if err := w.header([]string{"CPF/CNPJ", "Pontuação", "Faixa", "Classificação", "Terceiro"}); err != nil {
		return "", err
	}
	for i, sc := range card.Scores {
		row := []interface{}{sc.TaxID, sc.Score, string(sc.Band), sc.Tier, formatBool(sc.Local)}
		code := bandMasks[sc.Band]
		mask := []int{code, code, code, code, code}
		if err := w.row(i+2, row, mask); err != nil {
			return "", err
		}
	}
	return e.save(w, ReportScores, folder)
}

func (e *XLSXExporter) save(w *workbook, reportName, folder string) (string, error) {
	if err := os.MkdirAll(e.paths.ReportsDir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create reports directory", err)
	}
	path := e.paths.GetReportPath(FileName(reportName, folder, e.now()) + ".xlsx")
	if err := w.f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	e.logger.Info("report written",
		slog.String("report", reportName),
		slog.String("folder", folder),
		slog.String("path", path))
	return path, nil
}

// workbook is a single-sheet excelize file with a style cache.
type workbook struct {
	f      *excelize.File
	sheet  string
	styles map[int]int
	bold   int
	linked int
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	linked, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "1265BE", Underline: "single"}})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &workbook{f: f, sheet: sheet, styles: make(map[int]int), bold: bold, linked: linked}, nil
}

func (w *workbook) Close() { w.f.Close() }

func (w *workbook) header(names []string) error {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = n
	}
	if err := w.f.SetSheetRow(w.sheet, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(names), 1)
	if err := w.f.SetCellStyle(w.sheet, "A1", last, w.bold); err != nil {
		return err
	}
	return w.f.SetPanes(w.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// row writes values starting at column A; mask[j] colors values[j+1] for
// report rows whose first value is the entity.
func (w *workbook) row(n int, values []interface{}, mask []int) error {
	start, _ := excelize.CoordinatesToCellName(1, n)
	if err := w.f.SetSheetRow(w.sheet, start, &values); err != nil {
		return err
	}
	offset := len(values) - len(mask)
	for j, code := range mask {
		style, err := w.fill(code)
		if err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(j+offset+1, n)
		if err := w.f.SetCellStyle(w.sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) link(cell, url string) error {
	if err := w.f.SetCellValue(w.sheet, cell, url); err != nil {
		return err
	}
	if err := w.f.SetCellHyperLink(w.sheet, cell, url, "External"); err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, cell, cell, w.linked)
}

func (w *workbook) fill(code int) (int, error) {
	if id, ok := w.styles[code]; ok {
		return id, nil
	}
	color, ok := maskColors[code]
	if !ok {
		return 0, fmt.Errorf("unknown mask code %d", code)
	}
	id, err := w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		Border: []excelize.Border{
			{Type: "left", Color: "BFBFBF", Style: 1},
			{Type: "right", Color: "BFBFBF", Style: 1},
			{Type: "top", Color: "BFBFBF", Style: 1},
			{Type: "bottom", Color: "BFBFBF", Style: 1},
		},
	})
	if err != nil {
		return 0, err
	}
	w.styles[code] = id
	return id, nil
}
