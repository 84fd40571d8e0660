package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makelaardij/server/internal/models"
)

type collector struct {
	mu      sync.Mutex
	batches [][]*models.PropertyView
}

func (c *collector) handle(batch []*models.PropertyView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
	return nil
}

func (c *collector) sizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.batches))
	for i, b := range c.batches {
		out[i] = len(b)
	}
	return out
}

func view(id string) *models.PropertyView {
	return &models.PropertyView{PropertyID: id, ViewedAt: time.Now()}
}

func TestNewViewQueue(t *testing.T) {
	q := NewViewQueue(10, 5, time.Second, logrus.New())
	assert.NotNil(t, q)
	assert.Equal(t, 10, cap(q.items))
	assert.Equal(t, 5, q.maxBatch)
	assert.False(t, q.IsClosed())
}

func TestViewQueue_Push(t *testing.T) {
	q := NewViewQueue(2, 10, time.Second, logrus.New())

	err := q.Push(view("a"))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	assert.NoError(t, q.Push(view("b")))
	assert.Equal(t, ErrQueueFull, q.Push(view("c")))

	q.Close()
	assert.Equal(t, ErrQueueClosed, q.Push(view("d")))
}

func TestViewQueue_BatchesBySize(t *testing.T) {
	q := NewViewQueue(100, 3, time.Hour, logrus.New())
	c := &collector{}
	q.Subscribe(c.handle)
	q.Start()

	for i := 0; i < 7; i++ {
		require.NoError(t, q.Push(view("a")))
	}

	assert.Eventually(t, func() bool {
		s := c.sizes()
		return len(s) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{3, 3}, c.sizes())

	// Close flushes the remainder
	require.NoError(t, q.Close())
	assert.Equal(t, []int{3, 3, 1}, c.sizes())
}

func TestViewQueue_BatchesByTime(t *testing.T) {
	q := NewViewQueue(100, 50, 50*time.Millisecond, logrus.New())
	c := &collector{}
	q.Subscribe(c.handle)
	q.Start()
	defer q.Close()

	require.NoError(t, q.Push(view("a")))
	require.NoError(t, q.Push(view("b")))

	assert.Eventually(t, func() bool {
		s := c.sizes()
		return len(s) == 1 && s[0] == 2
	}, time.Second, 10*time.Millisecond)
}

func TestViewQueue_Close(t *testing.T) {
	q := NewViewQueue(10, 5, time.Second, logrus.New())
	q.Start()

	assert.NoError(t, q.Close())
	assert.True(t, q.IsClosed())

	// Closing twice is harmless
	assert.NoError(t, q.Close())
}

func TestViewQueue_CloseWithoutStart(t *testing.T) {
	q := NewViewQueue(10, 5, time.Second, logrus.New())
	require.NoError(t, q.Push(view("a")))

	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a queue that was never started")
	}
}

func TestViewQueue_ConcurrentPushAndClose(t *testing.T) {
	q := NewViewQueue(1000, 10, 10*time.Millisecond, logrus.New())
	c := &collector{}
	q.Subscribe(c.handle)
	q.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := q.Push(view("a"))
				if err != nil {
					assert.ErrorIs(t, err, ErrQueueClosed)
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, q.Close())
	wg.Wait()

	total := 0
	for _, s := range c.sizes() {
		total += s
	}
	assert.LessOrEqual(t, total, 400)
}
