package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vitalis-health/vitalis/internal/invoicing"
	jobmetrics "github.com/vitalis-health/vitalis/internal/jobs"
	"github.com/vitalis-health/vitalis/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// InvoiceFileJob produces the remittance file for a closed invoice and
// records the FILE_GENERATED transition.
type InvoiceFileJob struct {
	Invoicing *invoicing.Service
	OutputDir string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewInvoiceFileJob wires dependencies for the file-generation handler.
func NewInvoiceFileJob(svc *invoicing.Service, outputDir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *InvoiceFileJob {
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &InvoiceFileJob{
		Invoicing: svc,
		OutputDir: outputDir,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes invoice file tasks.
func (j *InvoiceFileJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Invoicing == nil {
		return errors.New("invoice file: handler not configured")
	}
	var payload InvoiceFilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskInvoiceFileGenerate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger.With(slog.Int64("invoice_id", payload.InvoiceID))
	logger.Info("generating invoice file")

	inv, err := j.Invoicing.Get(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, invoicing.ErrNotFound) {
			logger.Warn("invoice vanished before file generation")
			return asynq.SkipRetry
		}
		return err
	}
	items, err := j.Invoicing.ListLineItems(ctx, payload.InvoiceID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(j.OutputDir, fmt.Sprintf("%s.rem", inv.Number))
	if err := os.WriteFile(path, renderRemittance(inv, items, j.clock()), 0o644); err != nil {
		return fmt.Errorf("write remittance file: %w", err)
	}

	if _, err := j.Invoicing.CompleteFileGeneration(ctx, payload.InvoiceID, path); err != nil {
		if errors.Is(err, invoicing.ErrInvalidTransition) {
			// Another worker already recorded the artifact.
			logger.Warn("invoice already past file generation")
			return asynq.SkipRetry
		}
		return err
	}

	logger.Info("invoice file generated", slog.String("path", path))
	return nil
}

func renderRemittance(inv *invoicing.Invoice, items []invoicing.LineItem, at time.Time) []byte {
	var buf []byte
	buf = fmt.Appendf(buf, "REMESSA;%s;%s;%s;%s\n",
		inv.Number, inv.InsurerName, inv.CompetenceMonth, at.Format(shared.WireDate))
	for _, item := range items {
		buf = fmt.Appendf(buf, "ITEM;%d;%s;%.2f\n", item.ReceivableID, item.Description, item.Amount)
	}
	buf = fmt.Appendf(buf, "TOTAL;%.2f;%d\n", inv.TotalAmount, len(items))
	return buf
}
