package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/SaideepGaunker/Interview-prep-AI-coach/internal/domain/model"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/logger"
	"github.com/SaideepGaunker/Interview-prep-AI-coach/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	shutdownDrainTimeout  = 5 * time.Second
)

// Processor scores one chunk and appends the result to the owning
// session's history. Errors are logged and counted, never fatal to the
// shard loop.
type Processor interface {
	Process(ctx context.Context, chunk model.Chunk) error
}

// Pool is a set of shard queues with one dedicated worker goroutine
// each. Dispatch hashes the session id so all chunks of one session
// land on the same shard, which preserves per-session FIFO ordering
// without serializing unrelated sessions.
type Pool struct {
	shards   []*chunkQueue
	capacity int
	proc     Processor
	log      logger.Logger

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithShardCount sets the number of shards (and workers).
func WithShardCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.shards = make([]*chunkQueue, n)
		}
	}
}

// WithShardCapacity sets each shard's buffer size.
func WithShardCapacity(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPool creates a pool with one worker per shard. The shard count
// defaults to twice the CPU count.
func NewPool(proc Processor, opts ...Option) *Pool {
	p := &Pool{
		shards:   make([]*chunkQueue, runtime.NumCPU()*2),
		capacity: defaultShardCapacity,
		proc:     proc,
		log:      logger.Get().Named("pipeline"),
		shutdown: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	for i := range p.shards {
		p.shards[i] = newChunkQueue(p.capacity)
	}

	metrics.UpdateWorkerCount(len(p.shards))
	metrics.UpdateQueueCapacity(len(p.shards) * p.capacity)

	return p
}

// Run starts every shard worker and the metrics updater. It returns
// immediately; workers run until Shutdown or ctx cancellation.
func (p *Pool) Run(ctx context.Context) {
	for i, shard := range p.shards {
		p.wg.Add(1)
		go p.runWorker(ctx, fmt.Sprintf("shard-%d", i), shard)
	}

	go p.runMetricsUpdater(ctx)
}

// Dispatch routes a chunk to its session's shard. It reports false when
// the chunk was dropped (shard full or pool shut down).
func (p *Pool) Dispatch(ctx context.Context, chunk model.Chunk) bool {
	shard := p.shards[p.shardFor(chunk.SessionID)]
	if !shard.enqueue(ctx, chunk) {
		metrics.RecordChunkDropped("queue_full")
		return false
	}
	return true
}

// Shutdown closes every shard and waits for the workers to drain the
// remaining chunks, bounded by the context and a drain timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		close(p.shutdown)
		for _, shard := range p.shards {
			shard.close()
		}
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(shutdownDrainTimeout):
		return fmt.Errorf("pipeline shutdown timed out after %s", shutdownDrainTimeout)
	case <-ctx.Done():
		return fmt.Errorf("pipeline shutdown cancelled: %w", ctx.Err())
	}
}

func (p *Pool) runWorker(ctx context.Context, name string, shard *chunkQueue) {
	defer p.wg.Done()

	log := p.log.Named(name)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-shard.dequeue():
			if !ok {
				return
			}
			p.process(ctx, log, chunk)
		}
	}
}

func (p *Pool) process(ctx context.Context, log logger.Logger, chunk model.Chunk) {
	start := time.Now()
	err := p.proc.Process(ctx, chunk)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("pipeline", "process_error")
		log.Error(ctx, "chunk processing failed",
			logger.String("session_id", chunk.SessionID),
			logger.String("kind", string(chunk.Kind)),
			logger.Error(err),
		)
		return
	}

	metrics.RecordChunkProcessed(string(chunk.Kind))
}

func (p *Pool) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateQueueMetrics()
		}
	}
}

func (p *Pool) updateQueueMetrics() {
	var size int
	for _, shard := range p.shards {
		size += shard.len()
	}
	capacity := len(p.shards) * p.capacity

	metrics.UpdateQueueSize(size)
	if capacity > 0 {
		metrics.UpdateQueueUtilization(float64(size) / float64(capacity))
	}
}

func (p *Pool) shardFor(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(p.shards)))
}
