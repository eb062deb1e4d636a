package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths, resolved against a base
// directory.
type Paths struct {
	BaseDir       string
	DataDir       string
	DownloadsDir  string
	ReportsDir    string
	LogsDir       string
	WeightsFile   string
	SuppliersFile string
}

// ResolvePaths makes every configured path absolute. Relative paths are
// taken from base, or from the working directory when base is empty.
func (c *Config) ResolvePaths(base string) (*Paths, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:       base,
		DataDir:       abs(c.Paths.DataDir),
		DownloadsDir:  abs(c.Paths.DownloadsDir),
		ReportsDir:    abs(c.Paths.ReportsDir),
		LogsDir:       abs(c.Paths.LogsDir),
		WeightsFile:   abs(c.Paths.WeightsFile),
		SuppliersFile: abs(c.Paths.SuppliersFile),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.DownloadsDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDownloadPath returns the path of a downloaded file
func (p *Paths) GetDownloadPath(filename string) string {
	return filepath.Join(p.DownloadsDir, filename)
}

// GetReportPath returns the path of a generated report
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs the resolved paths at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("paths resolved",
		slog.String("base_dir", p.BaseDir),
		slog.String("downloads_dir", p.DownloadsDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("logs_dir", p.LogsDir))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
