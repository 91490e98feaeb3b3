package faults

import "sync"

// DefaultLogCapacity bounds the in-memory fault history.
const DefaultLogCapacity = 100

// Log retains the most recent fault records in a fixed-size ring buffer.
// When full, the oldest record is evicted first. It is safe for concurrent
// use.
type Log struct {
	mu       sync.Mutex
	records  []*Error
	start    int
	count    int
	capacity int
}

// NewLog creates a fault log holding at most capacity records. Non-positive
// capacities fall back to DefaultLogCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Log{
		records:  make([]*Error, capacity),
		capacity: capacity,
	}
}

// Record appends a fault, evicting the oldest entry when full. Nil records
// are ignored.
func (l *Log) Record(e *Error) {
	if e == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := (l.start + l.count) % l.capacity
	l.records[idx] = e
	if l.count < l.capacity {
		l.count++
	} else {
		l.start = (l.start + 1) % l.capacity
	}
}

// Recent returns up to n records, newest first.
func (l *Log) Recent(n int) []*Error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.count {
		n = l.count
	}

	out := make([]*Error, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.start + l.count - 1 - i + l.capacity) % l.capacity
		out = append(out, l.records[idx])
	}
	return out
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Clear drops all retained records.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = 0
	l.count = 0
	for i := range l.records {
		l.records[i] = nil
	}
}
