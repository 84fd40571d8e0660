package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ViewQueue buffers property views in memory and hands them to subscribers in
// batches, either when a batch is full or when the wait time elapses.
type ViewQueue struct {
	items    chan *models.PropertyView
	stopped  chan struct{}
	maxBatch int
	maxWait  time.Duration
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.PropertyView) error
}

// NewViewQueue creates a queue holding at most bufferSize unbatched views
func NewViewQueue(bufferSize, maxBatch int, maxWait time.Duration, logger *logrus.Logger) *ViewQueue {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	if maxWait <= 0 {
		maxWait = time.Second
	}
	return &ViewQueue{
		items:    make(chan *models.PropertyView, bufferSize),
		stopped:  make(chan struct{}),
		maxBatch: maxBatch,
		maxWait:  maxWait,
		logger:   logger,
		handlers: make([]func([]*models.PropertyView) error, 0),
	}
}

// Push adds a view to the queue without blocking
func (q *ViewQueue) Push(view *models.PropertyView) error {
	// The read lock is held across the send so Close cannot close the channel under us
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- view:
		q.logger.WithField("property_id", view.PropertyID).Debug("Pushed view to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *ViewQueue) Subscribe(handler func([]*models.PropertyView) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins batching items in the queue
func (q *ViewQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

func (q *ViewQueue) process() {
	defer close(q.stopped)

	ticker := time.NewTicker(q.maxWait)
	defer ticker.Stop()

	batch := make([]*models.PropertyView, 0, q.maxBatch)
	for {
		select {
		case view, ok := <-q.items:
			if !ok {
				q.dispatch(batch)
				return
			}
			batch = append(batch, view)
			if len(batch) >= q.maxBatch {
				q.dispatch(batch)
				batch = make([]*models.PropertyView, 0, q.maxBatch)
				ticker.Reset(q.maxWait)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				q.dispatch(batch)
				batch = make([]*models.PropertyView, 0, q.maxBatch)
			}
		}
	}
}

// dispatch sends the batch to all subscribed handlers
func (q *ViewQueue) dispatch(batch []*models.PropertyView) {
	if len(batch) == 0 {
		return
	}

	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting views, flushes the pending ones to the subscribers and
// waits for the batching loop to finish.
func (q *ViewQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	started := q.started
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the number of views waiting to be batched
func (q *ViewQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ViewQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
