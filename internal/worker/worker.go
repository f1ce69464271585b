package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	workerdomain "github.com/plumesocial/plume/internal/worker/domain"
	"github.com/plumesocial/plume/internal/worker/storage"
	"github.com/plumesocial/plume/shared/nostr"
	"github.com/plumesocial/plume/shared/postgresql"
	"github.com/plumesocial/plume/shared/rabbitmq"
)

// DeliveryStore is the read-side view of message rows the worker needs
type DeliveryStore interface {
	GetDelivery(ctx context.Context, messageID string) (*workerdomain.Delivery, error)
}

// EventBus publishes terminal status events
type EventBus interface {
	PublishStatusWithRetry(ctx context.Context, body []byte) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	DBClient      *postgresql.Client
	RabbitClient  *rabbitmq.Client
	Publisher     nostr.Publisher
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
}

// Worker consumes delivery jobs from the queue, executes the outbound post
// against the Nostr network, and publishes exactly one terminal status
// event per job.
type Worker struct {
	logger       *slog.Logger
	storage      DeliveryStore
	rabbitClient *rabbitmq.Client
	events       EventBus
	publisher    nostr.Publisher
	concurrency  int
	jobTimeout   time.Duration
	prefetch     int
	workerID     string
	jobsChan     chan *workerdomain.Job
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:       cfg.Logger,
		storage:      storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		rabbitClient: cfg.RabbitClient,
		events:       cfg.RabbitClient,
		publisher:    cfg.Publisher,
		concurrency:  cfg.Concurrency,
		jobTimeout:   cfg.JobTimeout,
		prefetch:     cfg.PrefetchCount,
		workerID:     fmt.Sprintf("plume-worker-%s", uuid.New().String()[:8]),
		jobsChan:     make(chan *workerdomain.Job),
		stopChan:     make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until ctx is
// canceled or the consumer stream fails.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	// Blocks until the delivery channel closes or ctx is canceled
	w.startJobDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker pool
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped",
		slog.String("worker_id", w.workerID),
	)
}
