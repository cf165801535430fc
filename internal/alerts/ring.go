package alerts

import "sync"

// DefaultHistorySize bounds the in-memory alert history.
const DefaultHistorySize = 1000

// Ring is a fixed-capacity alert history with O(1) append-and-evict: once
// full, each append overwrites the oldest entry. All methods are safe for
// concurrent use.
type Ring struct {
	mu   sync.Mutex
	buf  []Alert
	next int // index the next append writes to
	size int
}

// NewRing builds a ring holding up to capacity alerts.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Ring{buf: make([]Alert, capacity)}
}

// Append stores the alert, evicting the oldest entry when full.
func (r *Ring) Append(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = a
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// Recent returns up to n alerts, oldest first, newest last. n <= 0 returns
// the whole history.
func (r *Ring) Recent(n int) []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]Alert, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Len reports how many alerts are currently retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
