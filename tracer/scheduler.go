package tracer

import "math"

// Block statistics collected while tracing a batch.
type BlockStats struct {
	// The number of rays in the block.
	Rays int

	// The time for tracing this block (in nanoseconds)
	BlockTime int64
}

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split a batch of rays into one contiguous block per worker using
	// feedback collected from the previous batch.
	//
	// This function returns the number of rays assigned to each worker.
	Schedule(workers, numRays int, lastBatch []BlockStats) []int
}

type naiveScheduler struct{}

// Create a scheduler that splits rays evenly between workers.
func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

// Split rays evenly; the remainder is assigned to the first workers.
func (naiveScheduler) Schedule(workers, numRays int, _ []BlockStats) []int {
	if workers < 1 {
		workers = 1
	}
	assignment := make([]int, workers)
	for index := range assignment {
		assignment[index] = numRays / workers
		if index < numRays%workers {
			assignment[index]++
		}
	}
	return assignment
}

// The perfect scheduler assumes that the cost of tracing the same region of
// a ray batch is approximately the same between two subsequent batches.
type perfectScheduler struct{}

// Create a new perfect scheduler instance
func NewPerfectScheduler() BlockScheduler {
	return perfectScheduler{}
}

// Split rays into blocks using the throughput of each worker in the previous
// batch. The workload for worker w and batch i+1 is estimated as:
// w_i+1 = (rays_w,i / time_w,i) / Σ(rays_i / time_i)
//
// If no usable feedback is available the rays are split evenly.
func (perfectScheduler) Schedule(workers, numRays int, lastBatch []BlockStats) []int {
	if len(lastBatch) != workers || workers < 1 {
		return naiveScheduler{}.Schedule(workers, numRays, nil)
	}

	var total float64
	for _, stats := range lastBatch {
		if stats.BlockTime <= 0 || stats.Rays <= 0 {
			return naiveScheduler{}.Schedule(workers, numRays, nil)
		}
		total += float64(stats.Rays) / float64(stats.BlockTime)
	}

	scaler := float64(numRays) / total
	assignment := make([]int, workers)
	scheduledRays := 0
	for index, stats := range lastBatch {
		assignment[index] = int(math.Max(1.0, math.Floor(float64(stats.Rays)/float64(stats.BlockTime)*scaler)))
		scheduledRays += assignment[index]
	}

	// In case rays don't add up to the batch size adjust the first block
	assignment[0] += numRays - scheduledRays
	if assignment[0] < 0 {
		return naiveScheduler{}.Schedule(workers, numRays, nil)
	}

	return assignment
}
