package dataprocessing

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "certaudit/internal/errors"
	"certaudit/pkg/contracts/domain"
)

// Encodings accepted for the positive filings CSV.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
)

// NewDecodingReader wraps r so it yields UTF-8. Unknown encodings are an
// error; an empty encoding means UTF-8.
func NewDecodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingLatin1, "latin1", "latin-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// ParsePositivesFile reads a positive filings CSV from disk.
func ParsePositivesFile(filePath, encoding, nameHeader, processHeader string) ([]domain.PositiveFiling, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open positives file", err).WithContext("path", filePath)
	}
	defer f.Close()

	filings, err := ParsePositives(f, encoding, nameHeader, processHeader)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid positives file", err).WithContext("path", filePath)
	}
	return filings, nil
}

// ParsePositives reads the name and process number columns of a positive
// filings CSV. Values are kept as text; rows without a process number are
// skipped.
func ParsePositives(r io.Reader, encoding, nameHeader, processHeader string) ([]domain.PositiveFiling, error) {
	decoded, err := NewDecodingReader(r, encoding)
	if err != nil {
		return nil, err
	}

	df := dataframe.ReadCSV(decoded,
		dataframe.DetectTypes(false),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", df.Err)
	}

	if !hasColumn(df.Names(), nameHeader) || !hasColumn(df.Names(), processHeader) {
		return nil, fmt.Errorf("columns %q and %q are required, got %v", nameHeader, processHeader, df.Names())
	}

	names := df.Col(nameHeader).Records()
	processes := df.Col(processHeader).Records()

	filings := make([]domain.PositiveFiling, 0, len(names))
	for i := range names {
		proc := cleanCSVValue(processes[i])
		if proc == "" {
			continue
		}
		filings = append(filings, domain.PositiveFiling{
			Name:          cleanCSVValue(names[i]),
			ProcessNumber: proc,
		})
	}
	return filings, nil
}

func hasColumn(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// cleanCSVValue trims a cell and maps the missing-value marker of the
// dataframe to empty.
func cleanCSVValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "NaN" {
		return ""
	}
	return s
}
