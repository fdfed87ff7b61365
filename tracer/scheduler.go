package tracer

import "math"

// The BatchScheduler interface is implemented by all batch scheduling algorithms.
type BatchScheduler interface {
	// Split the number of light vertices requested for a round across
	// the pool of tracers using feedback collected from previous rounds.
	//
	// This function returns the batch size assignment for each tracer
	// in the input list. The assignments always add up to batchSize.
	Schedule(tracers []Tracer, batchSize int) []int
}

// The naive scheduler splits work according to each tracer's speed estimate.
type naiveScheduler struct {
}

// Create a new naive scheduler instance.
func NaiveScheduler() BatchScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(tracers []Tracer, batchSize int) []int {
	return scheduleBySpeed(tracers, batchSize)
}

// The perfect scheduler assumes that the volume of sampling work between two
// subsequent rounds is approximately the same.
type perfectScheduler struct {
	batchAssignment []int
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BatchScheduler {
	return &perfectScheduler{}
}

// Split the batch across tracers using feedback collected from the previous
// round.
//
// When previous round information is available the scheduler uses the
// following formula for estimating the workload for tracer w and round i+1:
// w_i, r_i+1 = (batch,w_i / time,w_i) / Σ(batch_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, batchSize int) []int {
	if len(tracers) == 0 {
		return []int{}
	}

	// If this is the first time we try to schedule or the number of tracers
	// has changed we need to reset the batch assignments
	if len(sch.batchAssignment) != len(tracers) || !haveThroughputStats(tracers) {
		sch.batchAssignment = scheduleBySpeed(tracers, batchSize)
		return sch.batchAssignment
	}

	// Use last round statistics
	var total float64
	for _, tr := range tracers {
		total += throughput(tr.Stats())
	}

	scaler := float64(batchSize) / total
	for idx, tr := range tracers {
		sch.batchAssignment[idx] = int(math.Max(1.0, math.Floor(throughput(tr.Stats())*scaler)))
	}

	balance(sch.batchAssignment, batchSize)
	return sch.batchAssignment
}

func scheduleBySpeed(tracers []Tracer, batchSize int) []int {
	assignment := make([]int, len(tracers))
	if len(tracers) == 0 {
		return assignment
	}

	var total float64
	for _, tr := range tracers {
		total += float64(tr.SpeedEstimate())
	}
	scaler := float64(batchSize) / total

	for idx, tr := range tracers {
		assignment[idx] = int(math.Max(1.0, math.Floor(float64(tr.SpeedEstimate())*scaler)))
	}

	balance(assignment, batchSize)
	return assignment
}

// Adjust assignments so they add up to total. Missing work is appended to the
// first tracer while excess work is removed from the largest assignments,
// starting from the end of the list.
func balance(assignment []int, total int) {
	var scheduled int
	for _, count := range assignment {
		scheduled += count
	}

	if scheduled <= total {
		assignment[0] += total - scheduled
		return
	}

	for excess := scheduled - total; excess > 0; excess-- {
		largest := 0
		for idx, count := range assignment {
			if count >= assignment[largest] {
				largest = idx
			}
		}
		assignment[largest]--
	}
}

func haveThroughputStats(tracers []Tracer) bool {
	for _, tr := range tracers {
		stats := tr.Stats()
		if stats == nil || stats.BatchSize == 0 || stats.BatchTime <= 0 {
			return false
		}
	}
	return true
}

// Get the number of light vertices produced per nanosecond.
func throughput(stats *Stats) float64 {
	return float64(stats.BatchSize) / float64(stats.BatchTime)
}
