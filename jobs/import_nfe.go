package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tonica-music/catalog/internal/importer"
	jobmetrics "github.com/tonica-music/catalog/internal/jobs"
	"github.com/tonica-music/catalog/internal/shared"
)

// ImportNFEJob runs queued invoice imports through the same pipeline as the
// synchronous endpoint.
type ImportNFEJob struct {
	Importer importer.Importer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewImportNFEJob initialises the import handler.
func NewImportNFEJob(imp importer.Importer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ImportNFEJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportNFEJob{Importer: imp, Logger: logger, Metrics: metrics}
}

// permanent lists failures a retry cannot fix.
var permanent = []error{
	shared.ErrValidation,
	shared.ErrInvalidDocument,
	shared.ErrInvalidTaxID,
	shared.ErrDuplicateSKU,
}

// Handle executes one import.
func (j *ImportNFEJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Importer == nil {
		return errors.New("import nfe: handler not configured")
	}
	var payload ImportNFEPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("import nfe: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	retry, _ := asynq.GetRetryCount(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	tracker := j.Metrics.Track(TaskImportNFE, retry)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger.With(slog.String("task_id", taskID), slog.String("actor", payload.ActorID), slog.Int("retry", retry))
	logger.Info("starting queued nfe import")

	result, err := j.Importer.Import(ctx, payload.Document, payload.ActorID)
	if err != nil {
		logger.Error("queued nfe import failed", slog.Any("error", err), slog.String("kind", shared.Kind(err)))
		for _, p := range permanent {
			if errors.Is(err, p) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
		}
		return err
	}

	if rw := t.ResultWriter(); rw != nil {
		body, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("import nfe: encode result: %w", err)
		}
		if _, err := rw.Write(body); err != nil {
			logger.Warn("store import result", slog.Any("error", err))
		}
	}
	logger.Info("queued nfe import committed", slog.Int("processed", result.ProcessedCount))
	return nil
}
