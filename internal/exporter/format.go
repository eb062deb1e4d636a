package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"certaudit/pkg/contracts/domain"
)

// Report names, also used as file name prefixes.
const (
	ReportDuplicates = "Certidões Duplicadas"
	ReportDates      = "Certidões com Datas Erradas"
	ReportValidity   = "Certidões com Validade Errada"
	ReportIdentity   = "Certidões com CPF ou CNPJ Inconsistente"
	ReportMap        = "Mapa de Certidões"
	ReportSheet      = "Sheet de Certidões"
	ReportScores     = "Pontuação de Fornecedores"
)

// timestampLayout is YYYYMMDD-HHMMSS.
const timestampLayout = "20060102-150405"

// ReportFor names the finding report of a check.
func ReportFor(check domain.Check) string {
	switch check {
	case domain.CheckDuplicates:
		return ReportDuplicates
	case domain.CheckDates:
		return ReportDates
	case domain.CheckValidity:
		return ReportValidity
	case domain.CheckIdentity:
		return ReportIdentity
	}
	return string(check)
}

// FileName builds a timestamped report file name without extension.
func FileName(report, folder string, at time.Time) string {
	return fmt.Sprintf("%s Folder [ %s ] - %s", report, folder, at.Format(timestampLayout))
}

// FolderLabel joins several folders the way file names show them.
func FolderLabel(folders []string) string {
	return strings.Join(folders, ", ")
}

// findingColumns are the headers of a finding report. Group only appears in
// the duplicate report and the reference key only in the identity report.
func findingColumns(check domain.Check) []string {
	cols := []string{}
	if check == domain.CheckDuplicates {
		cols = append(cols, "Grupo")
	}
	cols = append(cols, "Url", "Mensagem")
	if check == domain.CheckIdentity {
		cols = append(cols, "Url Referência")
	}
	return append(cols, "Severidade")
}

// findingRow renders a finding in findingColumns order.
func findingRow(check domain.Check, f domain.Finding) []string {
	row := []string{}
	if check == domain.CheckDuplicates {
		row = append(row, strconv.Itoa(f.Group))
	}
	row = append(row, f.ReportKey, f.Message)
	if check == domain.CheckIdentity {
		row = append(row, f.RefKey)
	}
	return append(row, string(f.Severity))
}

// formatFloat formats a score with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatBool formats a flag the way the supplier table spells it.
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// isLink reports whether a report key can be written as a hyperlink.
func isLink(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
