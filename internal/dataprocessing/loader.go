package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"certaudit/internal/config"
	"certaudit/internal/files"
	"certaudit/pkg/contracts/domain"
)

// maxParallelLoads bounds how many folders are parsed at once.
const maxParallelLoads = 4

// Dataset is the concatenation of the inputs of one or more folders.
type Dataset struct {
	Folders []string
	Records []domain.Record
	Filings []domain.PositiveFiling
}

// Loader reads folder inputs with the configured headers and encoding.
type Loader struct {
	columns  config.ColumnsConfig
	encoding string
	logger   *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(columns config.ColumnsConfig, encoding string, logger *slog.Logger) *Loader {
	return &Loader{
		columns:  columns,
		encoding: encoding,
		logger:   logger.With(slog.String("component", "loader")),
	}
}

// LoadFolders parses every folder and concatenates them in input order.
// Folders without a positives file contribute no filings.
func (l *Loader) LoadFolders(ctx context.Context, inputs []files.FolderInputs) (*Dataset, error) {
	start := time.Now()
	type part struct {
		records []domain.Record
		filings []domain.PositiveFiling
	}
	parts := make([]part, len(inputs))
	headers := l.columns.HeaderMap()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := ParseCaseFile(in.Case.Path, headers)
			if err != nil {
				return err
			}
			parts[i].records = records

			if in.Positives != nil {
				filings, err := ParsePositivesFile(in.Positives.Path, l.encoding, l.columns.PositiveName, l.columns.PositiveProcess)
				if err != nil {
					return err
				}
				parts[i].filings = filings
			}

			l.logger.DebugContext(ctx, "folder loaded",
				slog.String("folder", in.Folder),
				slog.Int("records", len(parts[i].records)),
				slog.Int("filings", len(parts[i].filings)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for i, p := range parts {
		ds.Folders = append(ds.Folders, inputs[i].Folder)
		ds.Records = append(ds.Records, p.records...)
		ds.Filings = append(ds.Filings, p.filings...)
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Any("folders", ds.Folders),
		slog.Int("records", len(ds.Records)),
		slog.Int("filings", len(ds.Filings)),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

// LoadSuppliers reads the supplier table.
func (l *Loader) LoadSuppliers(path string) ([]domain.Supplier, error) {
	return ParseSuppliers(path, l.columns.SupplierTaxID, l.columns.SupplierTier, l.columns.SupplierLocal)
}
