package services

import (
	"context"
	"log/slog"
	"time"

	"certaudit/internal/audit"
	"certaudit/internal/config"
	"certaudit/internal/dataprocessing"
	apperrors "certaudit/internal/errors"
	"certaudit/internal/exporter"
	"certaudit/internal/fetch"
	"certaudit/internal/files"
	"certaudit/internal/report"
	"certaudit/internal/store"
	"certaudit/internal/validation"
	"certaudit/pkg/contracts/domain"
)

// ReportRecorder counts written report files.
type ReportRecorder interface {
	RecordReport(ctx context.Context, report string)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run store.Run, findings []domain.Finding) error
}

// Downloader fetches missing folder files before an audit.
type Downloader interface {
	Fetch(ctx context.Context, folders []string, kinds ...fetch.Kind) ([]fetch.Result, error)
}

// AuditRequest selects the folders to audit. Empty optional fields take
// their value from the audit configuration.
type AuditRequest struct {
	Folders       []string `json:"folders" validate:"required,min=1,dive,required"`
	ReferenceDate string   `json:"reference_date,omitempty"`
	Outcomes      string   `json:"outcomes,omitempty" validate:"omitempty,oneof=all P N PN"`
	Formats       []string `json:"formats,omitempty" validate:"omitempty,dive,oneof=xlsx csv"`
	Download      bool     `json:"download,omitempty"`
}

// AuditSummary describes a finished audit run.
type AuditSummary struct {
	RunID     string               `json:"run_id"`
	Folders   []string             `json:"folders"`
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration"`
	Records   int                  `json:"records"`
	Errors    int                  `json:"errors"`
	Counts    map[domain.Check]int `json:"counts"`
	Reports   []string             `json:"reports"`
	Warnings  []string             `json:"warnings,omitempty"`
	Stored    bool                 `json:"stored"`
}

// AuditService loads folders, runs the checks and writes the reports.
type AuditService struct {
	cfg        *config.Config
	discovery  *files.Discovery
	validator  *validation.FileValidator
	loader     *dataprocessing.Loader
	xlsx       *exporter.XLSXExporter
	csv        *exporter.CSVWriter
	store      RunStore
	downloader Downloader
	recorder   ReportRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// AuditServiceOption customizes an AuditService.
type AuditServiceOption func(*AuditService)

// WithRunStore persists every run.
func WithRunStore(s RunStore) AuditServiceOption {
	return func(a *AuditService) { a.store = s }
}

// WithDownloader enables AuditRequest.Download.
func WithDownloader(d Downloader) AuditServiceOption {
	return func(a *AuditService) { a.downloader = d }
}

// WithReportRecorder counts written reports.
func WithReportRecorder(r ReportRecorder) AuditServiceOption {
	return func(a *AuditService) { a.recorder = r }
}

// WithClock replaces time.Now for validity checks.
func WithClock(now func() time.Time) AuditServiceOption {
	return func(a *AuditService) { a.now = now }
}

// NewAuditService creates an audit service reading folder files from the
// downloads directory.
func NewAuditService(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts ...AuditServiceOption) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuditService{
		cfg:       cfg,
		discovery: files.NewDiscovery(paths.DownloadsDir),
		validator: validation.NewFileValidator(logger),
		loader:    dataprocessing.NewLoader(cfg.Columns, cfg.Source.Encoding, logger),
		xlsx:      exporter.NewXLSXExporter(paths, logger),
		csv:       exporter.NewCSVWriter(paths, logger),
		logger:    logger.With(slog.String("service", "audit")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run audits the requested folders.
func (s *AuditService) Run(ctx context.Context, req AuditRequest) (*AuditSummary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	outcomes, err := report.ParseOutcomeFilter(firstNonEmpty(req.Outcomes, s.cfg.Audit.Outcomes))
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	if req.Download {
		if err := s.download(ctx, req.Folders); err != nil {
			return nil, err
		}
	}

	ds, err := s.Load(ctx, req.Folders)
	if err != nil {
		return nil, err
	}

	auditor := audit.NewAuditor(s.auditOptions(req.ReferenceDate), s.logger)
	res, err := auditor.Run(ctx, ds.Records, ds.Filings)
	if err != nil {
		return nil, err
	}

	summary := &AuditSummary{
		RunID:     res.RunID,
		Folders:   ds.Folders,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Records:   len(ds.Records),
		Errors:    res.ErrorCount(),
		Counts:    make(map[domain.Check]int, len(res.Findings)),
		Warnings:  res.Warnings,
	}
	for check, fs := range res.Findings {
		summary.Counts[check] = len(fs)
	}

	if err := s.validator.ValidateOutputDirectory(s.xlsx.ReportsDir()); err != nil {
		return nil, err
	}
	label := exporter.FolderLabel(ds.Folders)
	formats := req.Formats
	if len(formats) == 0 {
		formats = s.cfg.Audit.Formats
	}
	reports, err := s.writeReports(ctx, label, formats, res, outcomes)
	if err != nil {
		return nil, err
	}
	summary.Reports = reports

	if s.store != nil {
		run := store.Run{
			RunID:     res.RunID,
			Folders:   ds.Folders,
			StartedAt: res.StartedAt,
			Duration:  res.Duration,
			Records:   summary.Records,
			Errors:    summary.Errors,
		}
		if err := s.store.SaveRun(ctx, run, res.All()); err != nil {
			return nil, err
		}
		summary.Stored = true
	}

	s.logger.InfoContext(ctx, "audit finished",
		slog.String("run_id", summary.RunID),
		slog.Int("records", summary.Records),
		slog.Int("errors", summary.Errors),
		slog.Int("reports", len(summary.Reports)))
	return summary, nil
}

// Load finds, validates and parses the files of folders.
func (s *AuditService) Load(ctx context.Context, folders []string) (*dataprocessing.Dataset, error) {
	inputs, err := s.discovery.FindFolders(folders)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateInputs(inputs); err != nil {
		return nil, err
	}
	return s.loader.LoadFolders(ctx, inputs)
}

// IdentityOptions are the reconciler settings from the audit configuration.
func (s *AuditService) IdentityOptions() audit.IdentityOptions {
	return audit.IdentityOptions{
		Threshold:     s.cfg.Audit.Threshold,
		FuzzyFallback: s.cfg.Audit.FuzzyFallback,
	}
}

func (s *AuditService) auditOptions(referenceDate string) audit.Options {
	a := s.cfg.Audit
	opts := audit.DefaultOptions()
	opts.GroupFields = s.cfg.Columns.Fields(a.GroupColumns)
	opts.DateFields = s.cfg.Columns.Fields(a.DateColumns)
	opts.DateNullIsError = a.DateNullIsError
	opts.Validity.Layout = a.DateLayout
	opts.Validity.NullIsError = a.NullIsError
	opts.Validity.ReferenceDate = firstNonEmpty(referenceDate, a.ReferenceDate)
	opts.Validity.DayTokens = a.DayTokens
	opts.Validity.MonthTokens = a.MonthTokens
	opts.Validity.Now = s.now
	opts.Identity = s.IdentityOptions()
	return opts
}

func (s *AuditService) download(ctx context.Context, folders []string) error {
	if s.downloader == nil {
		return apperrors.NewConfigError("downloads are not enabled", nil)
	}
	kinds := []fetch.Kind{fetch.KindCase}
	if s.cfg.Source.PositiveURL != "" {
		kinds = append(kinds, fetch.KindPositives)
	}
	_, err := s.downloader.Fetch(ctx, folders, kinds...)
	return err
}

// writeReports writes one file per non-empty report and format. The map
// and sheet are xlsx only.
func (s *AuditService) writeReports(ctx context.Context, label string, formats []string, res *audit.Result, outcomes []domain.Outcome) ([]string, error) {
	var paths []string
	add := func(name, path string) {
		if path == "" {
			return
		}
		paths = append(paths, path)
		if s.recorder != nil {
			s.recorder.RecordReport(ctx, name)
		}
	}

	checks := []domain.Check{domain.CheckDuplicates, domain.CheckDates, domain.CheckValidity, domain.CheckIdentity}
	for _, format := range formats {
		for _, check := range checks {
			findings := res.Findings[check]
			var (
				path string
				err  error
			)
			switch format {
			case "csv":
				name := exporter.FileName(exporter.ReportFor(check), label, s.xlsx.Now())
				path, err = s.csv.WriteFindings(check, name, findings)
			default:
				path, err = s.xlsx.ExportFindings(check, label, findings)
			}
			if err != nil {
				return nil, err
			}
			add(exporter.ReportFor(check), path)
		}
	}

	path, err := s.xlsx.ExportMap(label, report.BuildMap(res.Reconciled, outcomes, s.cfg.Audit.Totals))
	if err != nil {
		return nil, err
	}
	add(exporter.ReportMap, path)

	path, err = s.xlsx.ExportSheet(label, report.BuildSheet(res.Reconciled), domain.Locale(s.cfg.Audit.Locale))
	if err != nil {
		return nil, err
	}
	add(exporter.ReportSheet, path)
	return paths, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
