package metrics

import "time"

// Timer measures one operation's latency against a publisher.
type Timer struct {
	publisher Publisher
	name      string
	tags      []string
	start     time.Time
}

// NewTimer starts a timer that records a timing metric when stopped.
func NewTimer(publisher Publisher, name string, tags ...string) *Timer {
	return &Timer{
		publisher: publisher,
		name:      name,
		tags:      tags,
		start:     time.Now(),
	}
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	t.publisher.Timing(t.name, duration, t.tags...)
	return duration
}

// Elapsed returns the time since start without recording.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
