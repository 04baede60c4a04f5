package audit

import (
	"context"
	"sync"
)

// Handler consumes a published audit record.
type Handler func(context.Context, Record) error

// Log fans published records out to subscribers. Records are published by the
// dispatcher only after the originating call commits.
type Log interface {
	Publish(ctx context.Context, record Record)
	Subscribe(recordType RecordType, handler Handler)
	SubscribeAll(handler Handler)
}

// inMemoryLog is a simple synchronous fan-out.
type inMemoryLog struct {
	mu        sync.RWMutex
	listeners map[RecordType][]Handler
	all       []Handler
}

// NewLog creates an in-memory audit log.
func NewLog() Log {
	return &inMemoryLog{listeners: make(map[RecordType][]Handler)}
}

// Publish synchronously invokes handlers for the record. Handler errors do
// not stop delivery to the remaining handlers: the audit trail is best-effort
// per sink, never a reason to fail committed work.
func (l *inMemoryLog) Publish(ctx context.Context, record Record) {
	l.mu.RLock()
	handlers := append([]Handler{}, l.all...)
	handlers = append(handlers, l.listeners[record.Type]...)
	l.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, record)
	}
}

// Subscribe registers a handler for one record type.
func (l *inMemoryLog) Subscribe(recordType RecordType, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners[recordType] = append(l.listeners[recordType], handler)
}

// SubscribeAll registers a handler for every record type.
func (l *inMemoryLog) SubscribeAll(handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, handler)
}
