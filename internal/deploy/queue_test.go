package deploy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/config"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := NewQueue(zap.NewNop(), config.QueueConfig{
		Addr:   mr.Addr(),
		Stream: "test:deploy",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q, mr
}

func TestQueueEnqueue(t *testing.T) {
	q, mr := newTestQueue(t)

	job := Job{TenantID: "t-1", Schema: "ts_0011aabbccdd", ServiceID: "svc-1"}
	require.NoError(t, q.Enqueue(context.Background(), job))

	stream, err := mr.Stream("test:deploy")
	require.NoError(t, err)
	require.Len(t, stream, 1)

	var got Job
	require.NoError(t, json.Unmarshal([]byte(stream[0].Values[1]), &got))
	assert.Equal(t, job, got)
}

func TestQueueWatchDeliversBacklog(t *testing.T) {
	q, _ := newTestQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// both jobs land before any watcher exists; the consumer group holds
	// them until one shows up
	require.NoError(t, q.Enqueue(ctx, Job{TenantID: "t-1", Schema: "ts_0011aabbccdd", ServiceID: "svc-1"}))
	require.NoError(t, q.Enqueue(ctx, Job{TenantID: "t-1", Schema: "ts_0011aabbccdd", ServiceID: "svc-2"}))

	ch := q.Watch(ctx)

	var got []string
	for len(got) < 2 {
		select {
		case job := <-ch:
			got = append(got, job.ServiceID)
		case <-ctx.Done():
			t.Fatalf("delivered %v before timeout, want both backlog jobs", got)
		}
	}
	assert.Equal(t, []string{"svc-1", "svc-2"}, got)
}

func TestQueueWatchDeliversNewJobs(t *testing.T) {
	q, _ := newTestQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch := q.Watch(ctx)

	job := Job{TenantID: "t-1", Schema: "ts_0011aabbccdd", ServiceID: "svc-42"}
	require.NoError(t, q.Enqueue(ctx, job))

	select {
	case got := <-ch:
		assert.Equal(t, "svc-42", got.ServiceID)
		assert.Equal(t, "ts_0011aabbccdd", got.Schema)
	case <-ctx.Done():
		t.Fatal("no job delivered before timeout")
	}

	// delivered jobs are acknowledged out of the pending list
	assert.Eventually(t, func() bool {
		pending, err := q.client.XPending(context.Background(), q.stream, consumerGroup).Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case _, open := <-ch:
		if open {
			for range ch {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch channel did not close after cancel")
	}
}
