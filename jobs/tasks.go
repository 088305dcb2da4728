package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceFileGenerate produces the remittance file for a closed invoice.
	TaskInvoiceFileGenerate = "invoice:generate_file"
	// TaskOverdueScan flags receivables past their due date.
	TaskOverdueScan = "receivables:overdue_scan"
	// TaskDashboardWarmup pre-populates dashboard caches.
	TaskDashboardWarmup = "dashboard:warmup"
)

// InvoiceFilePayload identifies the invoice to generate a file for.
type InvoiceFilePayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// NewInvoiceFileTask constructs an Asynq task.
func NewInvoiceFileTask(payload InvoiceFilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceFileGenerate, data), nil
}

// NewOverdueScanTask constructs the cron scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueScan, nil)
}

// NewDashboardWarmupTask constructs the cache warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueInvoiceFile enqueues a remittance-file generation task.
func (c *Client) EnqueueInvoiceFile(ctx context.Context, invoiceID int64) error {
	task, err := NewInvoiceFileTask(InvoiceFilePayload{InvoiceID: invoiceID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
