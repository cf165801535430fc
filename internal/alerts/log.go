package alerts

import "context"

// Log couples the bounded in-memory history with optional external delivery.
// Append is cheap and non-blocking; sink delivery happens on the emitter's
// workers.
type Log struct {
	ring    *Ring
	emitter *Emitter
}

// NewLog builds a log with the given history capacity. emitter may be nil
// when no sinks are configured.
func NewLog(capacity int, emitter *Emitter) *Log {
	return &Log{ring: NewRing(capacity), emitter: emitter}
}

// Append records the alert in the history and hands it to the sinks.
func (l *Log) Append(ctx context.Context, a Alert) {
	l.ring.Append(a)
	if l.emitter != nil {
		l.emitter.Emit(ctx, &a)
	}
}

// Recent returns up to n retained alerts, oldest first.
func (l *Log) Recent(n int) []Alert {
	return l.ring.Recent(n)
}

// Len reports how many alerts the history currently retains.
func (l *Log) Len() int {
	return l.ring.Len()
}

// Close drains the emitter, if any.
func (l *Log) Close(ctx context.Context) {
	if l.emitter != nil {
		l.emitter.Close(ctx)
	}
}
