package files

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certaudit/internal/config"
	apperrors "certaudit/internal/errors"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "caso-12.xlsx", CaseFileName("12"))
	assert.Equal(t, "positivos-caso-12.csv", PositivesFileName("12"))
}

func TestFindFolder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "caso-12.xlsx")
	touch(t, dir, "positivos-caso-12.csv")
	touch(t, dir, "caso-13.xlsx")

	d := NewDiscovery(dir)

	tests := []struct {
		name          string
		folder        string
		wantPositives bool
		wantErrType   apperrors.ErrorType
	}{
		{name: "with positives", folder: "12", wantPositives: true},
		{name: "without positives", folder: " 13 ", wantPositives: false},
		{name: "missing case file", folder: "14", wantErrType: apperrors.ErrTypeNotFound},
		{name: "blank folder", folder: "", wantErrType: apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := d.FindFolder(tt.folder)
			if tt.wantErrType != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.wantErrType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.folder), in.Folder)
			assert.Equal(t, filepath.Join(dir, CaseFileName(in.Folder)), in.Case.Path)
			assert.Equal(t, tt.wantPositives, in.Positives != nil)
		})
	}
}

func TestFindFolders_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "caso-2.xlsx")
	touch(t, dir, "caso-10.xlsx")

	inputs, err := NewDiscovery(dir).FindFolders([]string{"10", "2"})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "10", inputs[0].Folder)
	assert.Equal(t, "2", inputs[1].Folder)

	_, err = NewDiscovery(dir).FindFolders([]string{"2", "3"})
	assert.Error(t, err)
}

func TestListFolders(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "caso-7.xlsx")
	touch(t, dir, "caso-3.xlsx")
	touch(t, dir, "special-scores.xlsx")
	touch(t, dir, "positivos-caso-3.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "caso-9.xlsx"), 0755))

	folders, err := NewDiscovery(dir).ListFolders()
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "7"}, folders)

	_, err = NewDiscovery(filepath.Join(dir, "missing")).ListFolders()
	assert.Error(t, err)
}

func TestManager_WriteFrom(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	paths, err := cfg.ResolvePaths(base)
	require.NoError(t, err)

	m := NewManager(paths, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n, err := m.WriteFrom("downloads/caso-1.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.True(t, m.FileExists("downloads/caso-1.xlsx"))

	data, err := os.ReadFile(filepath.Join(paths.DownloadsDir, "caso-1.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(paths.DownloadsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestManager_ResolvePath(t *testing.T) {
	paths := &config.Paths{DataDir: "/d", DownloadsDir: "/dl", ReportsDir: "/r"}
	m := NewManager(paths, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, "/dl/a.xlsx", m.ResolvePath("downloads/a.xlsx"))
	assert.Equal(t, "/r/b.xlsx", m.ResolvePath("reports/b.xlsx"))
	assert.Equal(t, "/d/c.csv", m.ResolvePath("c.csv"))
	assert.Equal(t, "/abs/x", m.ResolvePath("/abs/x"))
}
