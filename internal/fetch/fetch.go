// Package fetch downloads certidão folders from the collection server.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"

	"certaudit/internal/config"
	apperrors "certaudit/internal/errors"
	"certaudit/internal/files"
)

// Kind selects which file of a folder is downloaded.
type Kind string

const (
	KindCase      Kind = "case"
	KindPositives Kind = "positives"
)

// DownloadRecorder receives one observation per download attempt.
type DownloadRecorder interface {
	RecordDownload(ctx context.Context, kind string, err error)
}

// Result describes one file of a fetch run.
type Result struct {
	Folder  string `json:"folder"`
	Kind    Kind   `json:"kind"`
	Path    string `json:"path"`
	Bytes   int64  `json:"bytes"`
	Skipped bool   `json:"skipped"`
}

// Fetcher downloads folder files into the downloads directory, one request
// at a time and no faster than the configured rate.
type Fetcher struct {
	cfg      config.SourceConfig
	client   *http.Client
	limiter  *rate.Limiter
	files    *files.Manager
	recorder DownloadRecorder
	logger   *slog.Logger
}

// NewFetcher creates a fetcher. recorder may be nil.
func NewFetcher(cfg config.SourceConfig, manager *files.Manager, recorder DownloadRecorder, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		files:    manager,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch downloads the requested kinds of every folder. Files already on
// disk are not downloaded again. The first failure stops the run; results
// gathered so far are returned with it.
func (f *Fetcher) Fetch(ctx context.Context, folders []string, kinds ...Kind) ([]Result, error) {
	if len(kinds) == 0 {
		kinds = []Kind{KindCase, KindPositives}
	}
	if f.cfg.Token == "" {
		return nil, apperrors.NewConfigError("source token is not configured", nil)
	}

	var results []Result
	for _, folder := range folders {
		for _, kind := range kinds {
			res, err := f.fetchOne(ctx, folder, kind)
			if err != nil {
				return results, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, folder string, kind Kind) (Result, error) {
	name, baseURL, format, err := f.target(folder, kind)
	if err != nil {
		return Result{}, err
	}
	rel := path.Join("downloads", name)
	res := Result{Folder: folder, Kind: kind, Path: f.files.ResolvePath(rel)}

	if f.files.FileExists(rel) {
		f.logger.WarnContext(ctx, "file already exists, not downloading again",
			slog.String("folder", folder),
			slog.String("kind", string(kind)),
			slog.String("path", res.Path))
		res.Skipped = true
		return res, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return res, err
	}

	f.logger.InfoContext(ctx, "downloading",
		slog.String("folder", folder),
		slog.String("kind", string(kind)))

	err = requests.
		URL(baseURL).
		Client(f.client).
		Param("folder", folder).
		Param("format", format).
		Header("Authorization", "Token "+f.cfg.Token).
		CheckStatus(http.StatusOK).
		Handle(func(resp *http.Response) error {
			n, err := f.files.WriteFrom(rel, resp.Body)
			res.Bytes = n
			return err
		}).
		Fetch(ctx)
	if f.recorder != nil {
		f.recorder.RecordDownload(ctx, string(kind), err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, apperrors.NewNetworkError(fmt.Sprintf("download of folder %s failed", folder), err).
			WithContext("folder", folder).
			WithContext("kind", string(kind))
	}
	return res, nil
}

func (f *Fetcher) target(folder string, kind Kind) (name, baseURL, format string, err error) {
	switch kind {
	case KindCase:
		name, baseURL, format = files.CaseFileName(folder), f.cfg.BaseURL, "xlsx"
	case KindPositives:
		name, baseURL, format = files.PositivesFileName(folder), f.cfg.PositiveURL, "csv"
	default:
		return "", "", "", apperrors.NewAppValidationError(fmt.Sprintf("unknown download kind %q", kind))
	}
	if baseURL == "" {
		return "", "", "", apperrors.NewConfigError(fmt.Sprintf("no source URL configured for %s files", kind), nil)
	}
	return name, baseURL, format, nil
}
