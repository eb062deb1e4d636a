package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/files"
)

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Consultado (Nome)"))
	require.NoError(t, f.SaveAs(path))
}

func TestFileValidator_ValidateWorkbook(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) string
		wantType apperrors.ErrorType
	}{
		{
			name: "valid workbook",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "caso-12.xlsx")
				writeWorkbook(t, p)
				return p
			},
		},
		{
			name: "missing file",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "caso-99.xlsx")
			},
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "caso-1.xlsx")
				require.NoError(t, os.WriteFile(p, nil, 0644))
				return p
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "wrong extension",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "caso-1.xls")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
				return p
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "temporary excel file",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "~$caso-1.xlsx")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
				return p
			},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "not a zip",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "caso-1.xlsx")
				require.NoError(t, os.WriteFile(p, []byte("plain text"), 0644))
				return p
			},
			wantType: apperrors.ErrTypeParsing,
		},
		{
			name: "directory",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "caso-1.xlsx")
				require.NoError(t, os.Mkdir(p, 0755))
				return p
			},
			wantType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(slog.Default())
			err := v.ValidateWorkbook(tt.setup(t, t.TempDir()))
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(nil)

	good := filepath.Join(dir, "positivos-caso-12.csv")
	require.NoError(t, os.WriteFile(good, []byte("Nome,Número do Processo\n"), 0644))
	assert.NoError(t, v.ValidateCSVFile(good))

	bad := filepath.Join(dir, "positivos.txt")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0644))
	err := v.ValidateCSVFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a CSV file")
}

func TestFileValidator_ValidateInputs(t *testing.T) {
	dir := t.TempDir()
	v := NewFileValidator(slog.Default())

	casePath := filepath.Join(dir, "caso-12.xlsx")
	writeWorkbook(t, casePath)
	posPath := filepath.Join(dir, "positivos-caso-12.csv")
	require.NoError(t, os.WriteFile(posPath, []byte("Nome\n"), 0644))

	inputs := []files.FolderInputs{{
		Folder:    "12",
		Case:      files.FileInfo{Path: casePath},
		Positives: &files.FileInfo{Path: posPath},
	}}
	assert.NoError(t, v.ValidateInputs(inputs))

	inputs = append(inputs, files.FolderInputs{
		Folder: "13",
		Case:   files.FileInfo{Path: filepath.Join(dir, "caso-13.xlsx")},
	})
	err := v.ValidateInputs(inputs)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "13", appErr.Context["folder"])
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(slog.Default())
	dir := filepath.Join(t.TempDir(), "reports", "2024")

	require.NoError(t, v.ValidateOutputDirectory(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	err = v.ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
