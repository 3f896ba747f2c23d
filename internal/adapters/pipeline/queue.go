// Package pipeline moves streamed media chunks from the gateway to the
// scorers. Chunks are routed to a fixed shard by session id so each
// session's chunks are processed strictly in arrival order while
// different sessions proceed in parallel.
package pipeline

import (
	"context"
	"sync"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/metrics"
)

const defaultShardCapacity = 1024

// chunkQueue is one bounded FIFO shard. Enqueue never blocks; a full
// or closed shard rejects the chunk and the caller drops it.
type chunkQueue struct {
	chunks chan model.Chunk

	mu     sync.RWMutex
	closed bool
}

func newChunkQueue(capacity int) *chunkQueue {
	if capacity <= 0 {
		capacity = defaultShardCapacity
	}
	return &chunkQueue{chunks: make(chan model.Chunk, capacity)}
}

func (q *chunkQueue) enqueue(ctx context.Context, c model.Chunk) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("pipeline", "closed")
		return false
	}

	select {
	case q.chunks <- c:
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("pipeline", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("pipeline", "shard_full")
		return false
	}
}

func (q *chunkQueue) dequeue() <-chan model.Chunk {
	return q.chunks
}

func (q *chunkQueue) len() int {
	return len(q.chunks)
}

func (q *chunkQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	close(q.chunks)
	q.closed = true
}
