package tracer

import (
	"sync"
	"time"

	"github.com/achilleasa/polaris-accel/intersect"
)

// The result of tracing a single ray.
type Result struct {
	Hit Hit
	Ok  bool
}

// Statistics for a traced batch.
type BatchStats struct {
	Rays    int
	Hits    int
	Elapsed time.Duration
	Blocks  []BlockStats
}

// Rays per second.
func (s BatchStats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Elapsed.Seconds()
}

// Batch traces ray batches with a pool of workers. Each worker processes a
// contiguous block of rays whose size is picked by the scheduler. A Batch
// must not be used concurrently.
type Batch struct {
	tracer    Tracer
	workers   int
	scheduler BlockScheduler
	lastStats []BlockStats
}

// Create a new batch tracer.
func NewBatch(tr Tracer, workers int, scheduler BlockScheduler) *Batch {
	if workers < 1 {
		workers = 1
	}
	if scheduler == nil {
		scheduler = NaiveScheduler()
	}
	return &Batch{
		tracer:    tr,
		workers:   workers,
		scheduler: scheduler,
	}
}

// Trace a ray batch with evenly sized blocks.
func TraceBatch(tr Tracer, rays []intersect.Ray, workers int) ([]Result, BatchStats) {
	return NewBatch(tr, workers, nil).Trace(rays)
}

// Trace a ray batch. Results are returned in ray order.
func (b *Batch) Trace(rays []intersect.Ray) ([]Result, BatchStats) {
	results := make([]Result, len(rays))
	assignment := b.scheduler.Schedule(b.workers, len(rays), b.lastStats)
	blockStats := make([]BlockStats, len(assignment))
	hits := make([]int, len(assignment))

	start := time.Now()
	var wg sync.WaitGroup
	offset := 0
	for index, blockLen := range assignment {
		if blockLen == 0 {
			continue
		}

		wg.Add(1)
		go func(index, from, to int) {
			defer wg.Done()
			blockStart := time.Now()
			for rayIndex := from; rayIndex < to; rayIndex++ {
				hit, ok := b.tracer.Intersect(rays[rayIndex])
				results[rayIndex] = Result{Hit: hit, Ok: ok}
				if ok {
					hits[index]++
				}
			}
			blockStats[index] = BlockStats{Rays: to - from, BlockTime: time.Since(blockStart).Nanoseconds()}
		}(index, offset, offset+blockLen)
		offset += blockLen
	}
	wg.Wait()

	stats := BatchStats{
		Rays:    len(rays),
		Elapsed: time.Since(start),
		Blocks:  blockStats,
	}
	for _, h := range hits {
		stats.Hits += h
	}
	b.lastStats = blockStats

	instrumentBatch(b.tracer.Id(), stats)
	return results, stats
}
