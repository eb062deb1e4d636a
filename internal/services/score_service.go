package services

import (
	"context"
	"log/slog"

	"certaudit/internal/audit"
	"certaudit/internal/config"
	"certaudit/internal/dataprocessing"
	apperrors "certaudit/internal/errors"
	"certaudit/internal/exporter"
	"certaudit/internal/report"
	"certaudit/internal/validation"
	"certaudit/pkg/contracts/domain"
)

// ScoreRequest selects the folders whose entities are scored. Empty file
// paths fall back to the configured supplier and weight tables.
type ScoreRequest struct {
	Folders       []string `json:"folders" validate:"required,min=1,dive,required"`
	SuppliersFile string   `json:"suppliers_file,omitempty"`
	WeightsFile   string   `json:"weights_file,omitempty"`
}

// ScoreSummary is the scorecard plus the file it was written to.
type ScoreSummary struct {
	Folders      []string          `json:"folders"`
	Scorecard    *report.Scorecard `json:"scorecard"`
	Unclassified int               `json:"unclassified"`
	Report       string            `json:"report,omitempty"`
}

// ScoreService ranks suppliers by the outcomes of their certidões.
type ScoreService struct {
	audits   *AuditService
	paths    *config.Paths
	loader   *dataprocessing.Loader
	files    *validation.FileValidator
	xlsx     *exporter.XLSXExporter
	recorder ReportRecorder
	logger   *slog.Logger
}

// NewScoreService creates a score service loading folders through audits.
func NewScoreService(audits *AuditService, cfg *config.Config, paths *config.Paths, recorder ReportRecorder, logger *slog.Logger) *ScoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreService{
		audits:   audits,
		paths:    paths,
		loader:   dataprocessing.NewLoader(cfg.Columns, cfg.Source.Encoding, logger),
		files:    validation.NewFileValidator(logger),
		xlsx:     exporter.NewXLSXExporter(paths, logger),
		recorder: recorder,
		logger:   logger.With(slog.String("service", "score")),
	}
}

// Score reconciles the identities of the folders, builds their sheet and
// scores every entity. A missing supplier table leaves every entity
// unclassified; a missing weight table applies the default weights.
func (s *ScoreService) Score(ctx context.Context, req ScoreRequest) (*ScoreSummary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	ds, err := s.audits.Load(ctx, req.Folders)
	if err != nil {
		return nil, err
	}
	reconciled, _ := audit.Reconcile(ds.Records, s.audits.IdentityOptions())
	sheet := report.BuildSheet(reconciled)

	suppliers, err := s.suppliers(ctx, firstNonEmpty(req.SuppliersFile, s.paths.SuppliersFile))
	if err != nil {
		return nil, err
	}
	weights, err := s.weights(ctx, firstNonEmpty(req.WeightsFile, s.paths.WeightsFile))
	if err != nil {
		return nil, err
	}

	card, err := report.ScoreSuppliers(sheet, suppliers, weights)
	if err != nil {
		var ve report.ValidationError
		if apperrors.As(err, &ve) {
			return nil, apperrors.NewAppValidationError(ve.Message).WithContext("field", ve.Field)
		}
		return nil, err
	}

	summary := &ScoreSummary{Folders: ds.Folders, Scorecard: card}
	for _, sc := range card.Scores {
		if sc.Unclassified {
			summary.Unclassified++
		}
	}

	path, err := s.xlsx.ExportScores(exporter.FolderLabel(ds.Folders), card)
	if err != nil {
		return nil, err
	}
	if path != "" {
		summary.Report = path
		if s.recorder != nil {
			s.recorder.RecordReport(ctx, exporter.ReportScores)
		}
	}

	s.logger.InfoContext(ctx, "suppliers scored",
		slog.Int("entities", len(card.Scores)),
		slog.Int("unclassified", summary.Unclassified),
		slog.Float64("max", card.Max))
	return summary, nil
}

func (s *ScoreService) suppliers(ctx context.Context, path string) ([]domain.Supplier, error) {
	if path == "" || !config.FileExists(path) {
		s.logger.WarnContext(ctx, "supplier table not found, entities are unclassified", slog.String("path", path))
		return nil, nil
	}
	if err := s.files.ValidateWorkbook(path); err != nil {
		return nil, err
	}
	return s.loader.LoadSuppliers(path)
}

func (s *ScoreService) weights(ctx context.Context, path string) (*report.WeightTable, error) {
	if path == "" || !config.FileExists(path) {
		s.logger.WarnContext(ctx, "weight table not found, using default weights", slog.String("path", path))
		return report.NewWeightTable(), nil
	}
	if err := s.files.ValidateWorkbook(path); err != nil {
		return nil, err
	}
	return dataprocessing.ParseWeights(path)
}
