package http

import (
	"context"

	"certaudit/internal/services"
)

// AuditRunner runs audits.
type AuditRunner interface {
	Run(ctx context.Context, req services.AuditRequest) (*services.AuditSummary, error)
}

// Scorer scores suppliers.
type Scorer interface {
	Score(ctx context.Context, req services.ScoreRequest) (*services.ScoreSummary, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}
