package registry

import (
	"context"
	"time"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/state"
)

// OpID selects which handler module processes a request.
type OpID string

// Handler processes one operation against the working state. The state it
// receives is a per-dispatch clone; nothing it writes survives a failure.
type Handler func(ctx context.Context, st *state.State, call *Call) (any, error)

// Module is a pluggable unit implementing one coherent subset of operations
// over shared state. Modules are stateless: everything persistent lives in
// the state they are handed per call.
type Module interface {
	Name() string
	Operations() map[OpID]Handler
	// Init runs as the optional post-registration initialization call.
	Init(ctx context.Context, st *state.State, call *Call) error
}

// Call carries per-dispatch context: who is calling, the operation, its
// arguments, the call timestamp, and the audit records buffered until commit.
type Call struct {
	Op     OpID
	Caller domain.Identity
	Args   any
	Now    time.Time

	records []audit.Record
}

// Emit buffers an audit record. Records are published only if the call
// commits; a revert discards them with the rest of the call's effects.
func (c *Call) Emit(t audit.RecordType, eventID int64, fields map[string]any) {
	c.records = append(c.records, audit.NewRecord(t, eventID, c.Caller, c.Now, fields))
}

// Records returns the buffered audit records.
func (c *Call) Records() []audit.Record {
	return c.records
}
