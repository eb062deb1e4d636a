package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"certaudit/pkg/contracts/domain"
)

const instrumentationName = "certaudit/internal/audit"

// Options selects which checks run and how.
type Options struct {
	// GroupFields are the duplicate key columns; empty disables the check.
	GroupFields []domain.Field
	// DateFields are validated by CheckDateColumns; empty disables the check.
	DateFields      []domain.Field
	DateNullIsError bool
	ReportField     domain.Field
	Validity        ValidityOptions
	Identity        IdentityOptions
}

// DefaultOptions checks duplicates on the usual certidão key.
func DefaultOptions() Options {
	return Options{
		GroupFields: []domain.Field{
			domain.FieldName,
			domain.FieldTaxID,
			domain.FieldClassification,
			domain.FieldOutcome,
		},
		DateFields:  []domain.Field{domain.FieldIssuedAt},
		ReportField: domain.FieldURL,
		Validity:    DefaultValidityOptions(),
		Identity:    IdentityOptions{Threshold: DefaultThreshold},
	}
}

// Result is the outcome of one audit run.
type Result struct {
	RunID      string                            `json:"run_id"`
	StartedAt  time.Time                         `json:"started_at"`
	Duration   time.Duration                     `json:"duration"`
	Findings   map[domain.Check][]domain.Finding `json:"findings"`
	Reconciled []domain.Record                   `json:"reconciled"`
	Warnings   []string                          `json:"warnings,omitempty"`
}

// All returns every finding, checks in a fixed order.
func (r *Result) All() []domain.Finding {
	var out []domain.Finding
	for _, c := range []domain.Check{domain.CheckDuplicates, domain.CheckDates, domain.CheckValidity, domain.CheckIdentity} {
		out = append(out, r.Findings[c]...)
	}
	return out
}

// ErrorCount counts the findings that are not informational.
func (r *Result) ErrorCount() int {
	return domain.CountErrors(r.All())
}

// Auditor runs every check over one table.
type Auditor struct {
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
	findings metric.Int64Counter
	runs     metric.Int64Counter
}

// NewAuditor creates an auditor reporting to the global OpenTelemetry
// providers.
func NewAuditor(opts Options, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter(instrumentationName)
	a := &Auditor{
		opts:   opts,
		logger: logger.With(slog.String("component", "auditor")),
		tracer: otel.Tracer(instrumentationName),
	}

	var err error
	a.findings, err = meter.Int64Counter(
		"audit_findings_total",
		metric.WithDescription("Findings produced per check"),
	)
	if err != nil {
		a.logger.Warn("audit findings counter unavailable", slog.String("error", err.Error()))
	}
	a.runs, err = meter.Int64Counter(
		"audit_runs_total",
		metric.WithDescription("Completed audit runs"),
	)
	if err != nil {
		a.logger.Warn("audit runs counter unavailable", slog.String("error", err.Error()))
	}
	return a
}

// Run audits records. The read-only checks work concurrently on a snapshot;
// the reconciled table is returned only after all of them finish. Context
// cancellation is observed between checks.
func (a *Auditor) Run(ctx context.Context, records []domain.Record, filings []domain.PositiveFiling) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "audit.Run",
		trace.WithAttributes(attribute.Int("records", len(records))))
	defer span.End()

	res := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Findings:  make(map[domain.Check][]domain.Finding, 4),
	}
	log := a.logger.With(slog.String("run_id", res.RunID))
	log.InfoContext(ctx, "audit started", slog.Int("records", len(records)))

	snapshot := domain.CloneRecords(records)
	reportField := a.opts.ReportField
	if reportField == "" {
		reportField = domain.FieldURL
	}

	var (
		dups, dates, validity, identity []domain.Finding
		reconciled                      []domain.Record
		validityErr                     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.step(gctx, domain.CheckDuplicates, func() {
			if len(a.opts.GroupFields) > 0 {
				dups = FindDuplicates(snapshot, filings, a.opts.GroupFields, reportField)
			}
		})
	})
	g.Go(func() error {
		return a.step(gctx, domain.CheckDates, func() {
			if len(a.opts.DateFields) > 0 {
				dates = CheckDateColumns(snapshot, a.opts.DateFields, a.opts.Validity.Layout, reportField, a.opts.DateNullIsError)
			}
		})
	})
	g.Go(func() error {
		return a.step(gctx, domain.CheckValidity, func() {
			vopts := a.opts.Validity
			if vopts.ReportField == "" {
				vopts.ReportField = reportField
			}
			validity, validityErr = CheckValidity(snapshot, vopts)
		})
	})
	g.Go(func() error {
		return a.step(gctx, domain.CheckIdentity, func() {
			iopts := a.opts.Identity
			if iopts.ReportField == "" {
				iopts.ReportField = reportField
			}
			reconciled, identity = Reconcile(snapshot, iopts)
		})
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WarnContext(ctx, "audit interrupted", slog.String("error", err.Error()))
		return nil, err
	}

	if validityErr != nil {
		if !errors.Is(validityErr, ErrInvalidReferenceDate) {
			return nil, validityErr
		}
		res.Warnings = append(res.Warnings, "validity check skipped: "+validityErr.Error())
		log.WarnContext(ctx, "validity check skipped", slog.String("error", validityErr.Error()))
	}

	res.Findings[domain.CheckDuplicates] = dups
	res.Findings[domain.CheckDates] = dates
	res.Findings[domain.CheckValidity] = validity
	res.Findings[domain.CheckIdentity] = identity
	res.Reconciled = reconciled
	res.Duration = time.Since(res.StartedAt)

	for check, fs := range res.Findings {
		if a.findings != nil {
			a.findings.Add(ctx, int64(len(fs)), metric.WithAttributes(attribute.String("check", string(check))))
		}
	}
	if a.runs != nil {
		a.runs.Add(ctx, 1)
	}

	span.SetAttributes(attribute.Int("findings", len(res.All())))
	log.InfoContext(ctx, "audit completed",
		slog.Int("duplicates", len(dups)),
		slog.Int("dates", len(dates)),
		slog.Int("validity", len(validity)),
		slog.Int("identity", len(identity)),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (a *Auditor) step(ctx context.Context, check domain.Check, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := a.tracer.Start(ctx, "audit."+string(check))
	defer span.End()
	fn()
	return nil
}
