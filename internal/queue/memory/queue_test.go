package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

func TestQueueRoundTrip(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	task := analyzer.DeliveryTask{RequestID: "req-1", Kind: analyzer.TaskTextEmail, Email: "user@example.com"}
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, task, got)
}

func TestQueuePreservesOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "req-1", Kind: analyzer.TaskTextEmail}))
	require.NoError(t, q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "req-1", Kind: analyzer.TaskPDFEmail}))

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, analyzer.TaskTextEmail, first.Kind)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, analyzer.TaskPDFEmail, second.Kind)
}

func TestEnqueueFullQueueFailsFast(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "a"}))

	start := time.Now()
	err := q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "b"})
	require.ErrorIs(t, err, ErrQueueFull)
	require.Less(t, time.Since(start), 50*time.Millisecond)

	// Draining frees capacity again.
	_, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "b"}))
}

func TestEnqueueCanceledContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "a"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDequeueRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDrainsThenErrors(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, analyzer.DeliveryTask{RequestID: "a"}))

	q.Close()
	q.Close() // idempotent

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", got.RequestID)

	_, err = q.Dequeue(ctx)
	require.ErrorIs(t, err, ErrClosed)
}
