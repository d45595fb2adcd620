package pool

// Stats provides a point-in-time snapshot of a pool
type Stats struct {
	Name             string  `json:"name"`
	Bees             int     `json:"bees"`              // Fixed number of bee goroutines
	QueueCapacity    int     `json:"queue_capacity"`    // Effective queue capacity
	Queued           int     `json:"queued"`            // Tasks waiting in the queue
	Active           int     `json:"active"`            // Tasks dequeued and not yet finished
	Submitted        int64   `json:"submitted"`         // Total accepted submissions
	Rejected         int64   `json:"rejected"`          // Total NoWait submissions refused on a full queue
	Completed        int64   `json:"completed"`         // Total tasks that finished executing
	Discarded        int64   `json:"discarded"`         // Total tasks dropped by a Discard shutdown
	QueueUtilization float64 `json:"queue_utilization"` // Queue utilization percentage
	Running          bool    `json:"running"`
}

// Stats returns current pool statistics
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := p.queue.len
	active := p.active
	running := p.running
	p.mu.Unlock()

	capacity := p.queue.capacity()
	return Stats{
		Name:             p.name,
		Bees:             p.bees,
		QueueCapacity:    capacity,
		Queued:           queued,
		Active:           active,
		Submitted:        p.submitted.Load(),
		Rejected:         p.rejected.Load(),
		Completed:        p.completed.Load(),
		Discarded:        p.discarded.Load(),
		QueueUtilization: float64(queued) / float64(capacity) * 100.0,
		Running:          running,
	}
}
