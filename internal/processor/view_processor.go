package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"makelaardij/server/config"
	"makelaardij/server/internal/models"
	"makelaardij/server/internal/queue"
)

// ViewWriter stores a batch of views atomically
type ViewWriter interface {
	InsertViews(ctx context.Context, views []*models.PropertyView) error
}

// ViewProcessor writes batches of property views from the queue to the database
type ViewProcessor struct {
	writer ViewWriter
	logger *logrus.Logger
	config *config.Config
	queue  *queue.ViewQueue
	ctx    context.Context
	cancel context.CancelFunc
}

// NewViewProcessor creates a new view processor instance
func NewViewProcessor(writer ViewWriter, queue *queue.ViewQueue, config *config.Config, logger *logrus.Logger) *ViewProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewProcessor{
		writer: writer,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to the queue
func (p *ViewProcessor) Start() {
	p.queue.Subscribe(p.processBatch)
}

// Stop aborts pending retries. Close the queue first so buffered views are written.
func (p *ViewProcessor) Stop() {
	p.cancel()
}

// processBatch writes a single batch with retry logic
func (p *ViewProcessor) processBatch(batch []*models.PropertyView) error {
	maxRetries := p.config.BatchProcessing.MaxRetries
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying view batch, attempt %d of %d", attempt, maxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("processor stopped, dropping %d views: %w", len(batch), err)
			case <-time.After(delay):
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = p.writer.InsertViews(ctx, batch)
		cancel()

		if err == nil {
			p.logger.WithField("batch_size", len(batch)).Debug("Stored property view batch")
			return nil
		}

		p.logger.WithError(err).Error("View batch processing failed")
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries, err)
}
