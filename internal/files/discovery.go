package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "certaudit/internal/errors"
)

const (
	casePrefix      = "caso-"
	positivesPrefix = "positivos-caso-"
)

// CaseFileName is the main table file of a folder.
func CaseFileName(folder string) string {
	return casePrefix + folder + ".xlsx"
}

// PositivesFileName is the positive filings file of a folder.
func PositivesFileName(folder string) string {
	return positivesPrefix + folder + ".csv"
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FolderInputs are the files of one certidão folder. Positives is nil when
// the folder has no positive filings file.
type FolderInputs struct {
	Folder    string
	Case      FileInfo
	Positives *FileInfo
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindFolder returns the inputs of a folder. A missing main table is a
// NOT_FOUND error; a missing positives file is not.
func (d *Discovery) FindFolder(folder string) (FolderInputs, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return FolderInputs{}, apperrors.NewAppValidationError("folder must not be empty")
	}

	caseInfo, err := d.stat(CaseFileName(folder))
	if err != nil {
		if os.IsNotExist(err) {
			return FolderInputs{}, apperrors.NewNotFoundError(fmt.Sprintf("case file for folder %s", folder)).
				WithContext("path", filepath.Join(d.basePath, CaseFileName(folder)))
		}
		return FolderInputs{}, apperrors.NewStorageError("stat case file", err)
	}

	inputs := FolderInputs{Folder: folder, Case: caseInfo}
	if pos, err := d.stat(PositivesFileName(folder)); err == nil {
		inputs.Positives = &pos
	} else if !os.IsNotExist(err) {
		return FolderInputs{}, apperrors.NewStorageError("stat positives file", err)
	}
	return inputs, nil
}

// FindFolders resolves several folders, in the given order.
func (d *Discovery) FindFolders(folders []string) ([]FolderInputs, error) {
	out := make([]FolderInputs, 0, len(folders))
	for _, f := range folders {
		in, err := d.FindFolder(f)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// ListFolders returns the folders that have a main table under the base
// path, sorted.
func (d *Discovery) ListFolders() ([]string, error) {
	files, err := d.FindExcelFiles()
	if err != nil {
		return nil, err
	}

	var folders []string
	for _, f := range files {
		if !strings.HasPrefix(f.Name, casePrefix) {
			continue
		}
		folder := strings.TrimSuffix(strings.TrimPrefix(f.Name, casePrefix), filepath.Ext(f.Name))
		if folder != "" {
			folders = append(folders, folder)
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// FindExcelFiles finds all Excel files under the base path, oldest first.
func (d *Discovery) FindExcelFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.basePath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.basePath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

func (d *Discovery) stat(name string) (FileInfo, error) {
	path := filepath.Join(d.basePath, name)
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return FileInfo{Path: path, Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}
