package dataprocessing

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"certaudit/internal/config"
	apperrors "certaudit/internal/errors"
	"certaudit/internal/files"
	"certaudit/pkg/contracts/domain"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

var caseHeader = []interface{}{
	"Consultado (Nome)", "Consultado (CPF/CNPJ)", "Classificação", "Resultado",
	"Emitido em", "Validade", "Url", "Observação",
}

func TestParseCaseRows(t *testing.T) {
	headers := config.Default().Columns.HeaderMap()
	rows := [][]string{
		{"Relatório de certidões"},
		{},
		{"Consultado (Nome)", "Consultado (CPF/CNPJ)", "Classificação", "Resultado", "Emitido em", "Validade", "Url", "Observação"},
		{" ACME ", "11", "CNDT - Trabalhista", "Negativa", "01/02/2024", "180 dias", "u1", "ok"},
		{"", "", ""},
		{"BETA", "22", "FGTS", "Positiva"},
	}

	records, err := ParseCaseRows(rows, headers)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ACME", records[0].Name)
	assert.Equal(t, domain.OutcomeNegative, records[0].Outcome)
	assert.Equal(t, "180 dias", records[0].Validity)
	assert.Equal(t, "ok", records[0].Get("Observação"))

	assert.Equal(t, domain.OutcomePositive, records[1].Outcome)
	assert.Empty(t, records[1].URL)
}

func TestParseCaseRows_Errors(t *testing.T) {
	headers := config.Default().Columns.HeaderMap()

	_, err := ParseCaseRows([][]string{{"a", "b"}, {"1", "2"}}, headers)
	assert.ErrorContains(t, err, "header row not found")

	_, err = ParseCaseRows([][]string{{"Url", "Resultado", "Url"}}, headers)
	assert.ErrorContains(t, err, "appears twice")
}

func TestParseCaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caso-1.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		caseHeader,
		{"ACME", "11", "CNDT", "Pos./Neg.", "01/02/2024", "", "u1", ""},
	})

	records, err := ParseCaseFile(path, config.Default().Columns.HeaderMap())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.OutcomePositiveNegative, records[0].Outcome)
	assert.Equal(t, "u1", records[0].URL)

	_, err = ParseCaseFile(filepath.Join(t.TempDir(), "missing.xlsx"), config.Default().Columns.HeaderMap())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestParsePositives(t *testing.T) {
	csv := "Nome,Número do Processo,Vara\n" +
		"cert-1.pdf,0002-22,1a\n" +
		"cert-1.pdf,0001-22,1a\n" +
		"cert-2.pdf,,2a\n"

	filings, err := ParsePositives(strings.NewReader(csv), EncodingUTF8, "Nome", "Número do Processo")
	require.NoError(t, err)
	assert.Equal(t, []domain.PositiveFiling{
		{Name: "cert-1.pdf", ProcessNumber: "0002-22"},
		{Name: "cert-1.pdf", ProcessNumber: "0001-22"},
	}, filings)

	_, err = ParsePositives(strings.NewReader("a,b\n1,2\n"), EncodingUTF8, "Nome", "Número do Processo")
	assert.ErrorContains(t, err, "are required")
}

func TestParsePositives_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("Nome,Número do Processo\nação.pdf,123\n")
	require.NoError(t, err)

	filings, err := ParsePositives(bytes.NewReader([]byte(encoded)), EncodingLatin1, "Nome", "Número do Processo")
	require.NoError(t, err)
	require.Len(t, filings, 1)
	assert.Equal(t, "ação.pdf", filings[0].Name)

	_, err = NewDecodingReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestParseWeightRows(t *testing.T) {
	table, err := ParseWeightRows([][]string{
		{"CNDT", "2", "1,5", "1", "3", "", "0"},
		{},
		{"FGTS", "0.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CNDT", "FGTS"}, table.Types())
	assert.Equal(t, map[string]float64{"CNDT": 1.5, "FGTS": 1}, table.Exceptions(2))
	assert.Equal(t, 1.0, table.Exceptions(5)["CNDT"])

	_, err = ParseWeightRows([][]string{{"CNDT", "x"}})
	assert.ErrorContains(t, err, "invalid weight")

	_, err = ParseWeightRows([][]string{{"", "2"}})
	assert.ErrorContains(t, err, "no document type")
}

func TestParseWeightsAndSuppliers(t *testing.T) {
	dir := t.TempDir()
	weights := filepath.Join(dir, "special-scores.xlsx")
	writeWorkbook(t, weights, [][]interface{}{
		{"Tipo", "A", "B", "C", "A local", "B local", "C local"},
		{"CNDT", 2, 2, 2, 3, 3, 3},
	})
	table, err := ParseWeights(weights)
	require.NoError(t, err)
	assert.Equal(t, 3.0, table.Exceptions(4)["CNDT"])

	suppliers := filepath.Join(dir, "fornecedores.xlsx")
	writeWorkbook(t, suppliers, [][]interface{}{
		{"CNPJ_CPF", "Razão", "Classificação", "Terceiro"},
		{"11", "ACME", "a", 1},
		{"22", "BETA", "C", 0},
	})
	cols := config.Default().Columns
	got, err := ParseSuppliers(suppliers, cols.SupplierTaxID, cols.SupplierTier, cols.SupplierLocal)
	require.NoError(t, err)
	assert.Equal(t, []domain.Supplier{
		{TaxID: "11", Tier: "A", Local: true},
		{TaxID: "22", Tier: "C", Local: false},
	}, got)
}

func TestLoader_LoadFolders(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, files.CaseFileName("1")), [][]interface{}{
		caseHeader,
		{"ACME", "11", "CNDT", "Positiva", "01/02/2024", "", "cert-1.pdf", ""},
	})
	writeWorkbook(t, filepath.Join(dir, files.CaseFileName("2")), [][]interface{}{
		caseHeader,
		{"BETA", "22", "FGTS", "Negativa", "01/02/2024", "", "cert-2.pdf", ""},
		{"BETA", "22", "CNDT", "Negativa", "01/02/2024", "", "cert-3.pdf", ""},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, files.PositivesFileName("1")),
		[]byte("Nome,Número do Processo\ncert-1.pdf,0001\n"), 0644))

	inputs, err := files.NewDiscovery(dir).FindFolders([]string{"2", "1"})
	require.NoError(t, err)

	cfg := config.Default()
	loader := NewLoader(cfg.Columns, cfg.Source.Encoding, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ds, err := loader.LoadFolders(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "1"}, ds.Folders)
	require.Len(t, ds.Records, 3)
	assert.Equal(t, "cert-2.pdf", ds.Records[0].URL)
	assert.Equal(t, "cert-1.pdf", ds.Records[2].URL)
	assert.Equal(t, []domain.PositiveFiling{{Name: "cert-1.pdf", ProcessNumber: "0001"}}, ds.Filings)
}

func TestLoader_LoadFolders_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, files.CaseFileName("1")), [][]interface{}{caseHeader})
	inputs, err := files.NewDiscovery(dir).FindFolders([]string{"1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.Default()
	_, err = NewLoader(cfg.Columns, cfg.Source.Encoding, slog.New(slog.NewTextHandler(io.Discard, nil))).
		LoadFolders(ctx, inputs)
	assert.ErrorIs(t, err, context.Canceled)
}
