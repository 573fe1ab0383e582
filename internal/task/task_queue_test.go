package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_EnqueueAndConsume(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, setupTestLogger())
	require.NoError(t, q.Enqueue(newTestTask("a")))
	require.NoError(t, q.Enqueue(newTestTask("b")))
	assert.Equal(t, 2, q.Len())

	got := <-q.GetChannel()
	assert.Equal(t, "a", got.ID)
	got = <-q.GetChannel()
	assert.Equal(t, "b", got.ID)
}

func TestTaskQueue_Full(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1, setupTestLogger())
	require.NoError(t, q.Enqueue(newTestTask("a")))

	err := q.Enqueue(newTestTask("b"))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskQueue_Closed(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, setupTestLogger())
	require.NoError(t, q.Enqueue(newTestTask("a")))
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newTestTask("b")), ErrQueueClosed)

	// Buffered tasks survive Close.
	got, ok := <-q.GetChannel()
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
	_, ok = <-q.GetChannel()
	assert.False(t, ok)
}

func TestTaskQueue_ConcurrentEnqueueAndClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(1000, setupTestLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Enqueue(newTestTask("x"))
			if err != nil {
				assert.ErrorIs(t, err, ErrQueueClosed)
			}
		}()
	}
	q.Close()
	wg.Wait()
}
