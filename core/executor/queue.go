package executor

import (
	"container/heap"
	"sync"
	"time"
)

// dispatchQueue is a priority queue of pending job ids, ordered by enqueue
// time so submissions run in arrival order.
type dispatchQueue struct {
	items []*queuedJob
	mu    sync.Mutex
}

// queuedJob wraps a job id with queue bookkeeping
type queuedJob struct {
	JobID      string
	EnqueuedAt time.Time
	Index      int // For heap.Interface
}

// newDispatchQueue creates a new dispatch queue
func newDispatchQueue() *dispatchQueue {
	dq := &dispatchQueue{
		items: make([]*queuedJob, 0),
	}
	heap.Init(dq)
	return dq
}

// Enqueue adds a job id to the queue
func (dq *dispatchQueue) Enqueue(jobID string) {
	dq.mu.Lock()
	defer dq.mu.Unlock()

	heap.Push(dq, &queuedJob{
		JobID:      jobID,
		EnqueuedAt: time.Now(),
	})
}

// PopJob removes and returns the oldest queued job id, or "" when empty.
func (dq *dispatchQueue) PopJob() string {
	dq.mu.Lock()
	defer dq.mu.Unlock()

	if dq.Len() == 0 {
		return ""
	}

	item := heap.Pop(dq).(*queuedJob)
	return item.JobID
}

// Depth returns the number of queued jobs
func (dq *dispatchQueue) Depth() int {
	dq.mu.Lock()
	defer dq.mu.Unlock()
	return dq.Len()
}

// Len returns the number of items in the queue
func (dq *dispatchQueue) Len() int {
	return len(dq.items)
}

// Less orders by enqueue time, oldest first
func (dq *dispatchQueue) Less(i, j int) bool {
	return dq.items[i].EnqueuedAt.Before(dq.items[j].EnqueuedAt)
}

// Swap swaps two items
func (dq *dispatchQueue) Swap(i, j int) {
	dq.items[i], dq.items[j] = dq.items[j], dq.items[i]
	dq.items[i].Index = i
	dq.items[j].Index = j
}

// Push implements heap.Interface
func (dq *dispatchQueue) Push(x interface{}) {
	n := len(dq.items)
	item := x.(*queuedJob)
	item.Index = n
	dq.items = append(dq.items, item)
}

// Pop implements heap.Interface
func (dq *dispatchQueue) Pop() interface{} {
	old := dq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	dq.items = old[0 : n-1]
	return item
}
