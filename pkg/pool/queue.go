package pool

// entry is one queued task plus the ID assigned at submission.
type entry struct {
	task Task
	id   string
}

// ring is a fixed-capacity FIFO circular buffer.
// It is not safe for concurrent use; the pool mutex guards it.
type ring struct {
	slots []entry
	front int
	len   int
}

func newRing(capacity int) *ring {
	return &ring{slots: make([]entry, capacity)}
}

func (r *ring) capacity() int { return len(r.slots) }
func (r *ring) full() bool    { return r.len == len(r.slots) }
func (r *ring) empty() bool   { return r.len == 0 }

// push appends at the tail. The caller must check full first.
func (r *ring) push(e entry) {
	r.slots[(r.front+r.len)%len(r.slots)] = e
	r.len++
}

// pop removes the head. The caller must check empty first.
func (r *ring) pop() entry {
	e := r.slots[r.front]
	r.slots[r.front] = entry{}
	r.front = (r.front + 1) % len(r.slots)
	r.len--
	return e
}

// reset drops every queued entry and returns how many there were.
func (r *ring) reset() int {
	n := r.len
	clear(r.slots)
	r.front = 0
	r.len = 0
	return n
}
