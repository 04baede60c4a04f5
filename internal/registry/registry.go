package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/clock"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/observability"
	"github.com/spec-kit/ticket-exchange/internal/state"
	"github.com/spec-kit/ticket-exchange/internal/token"
)

// Action selects what a batch entry does to its operation IDs.
type Action int8

const (
	ActionAdd Action = iota
	ActionReplace
	ActionRemove
)

// BatchEntry maps a set of operation IDs to a module. For ActionRemove the
// module must be nil.
type BatchEntry struct {
	Module Module
	Action Action
	Ops    []OpID
}

// InitCall names a registered module whose Init runs after a batch commits
// its staging; Init failure rolls the whole batch back.
type InitCall struct {
	Module string
	Args   any
}

// ModuleInfo describes one registered module for introspection.
type ModuleInfo struct {
	Name string `json:"name"`
	Ops  []OpID `json:"operations"`
}

type moduleEntry struct {
	module   Module
	handlers map[OpID]Handler
	ops      []OpID
	// index maps op to its position in ops so removal is O(1): swap the
	// last op into the vacated slot.
	index map[OpID]int
}

func (e *moduleEntry) add(op OpID) {
	e.index[op] = len(e.ops)
	e.ops = append(e.ops, op)
}

func (e *moduleEntry) remove(op OpID) {
	pos, ok := e.index[op]
	if !ok {
		return
	}
	last := len(e.ops) - 1
	moved := e.ops[last]
	e.ops[pos] = moved
	e.index[moved] = pos
	e.ops = e.ops[:last]
	delete(e.index, op)
}

func (e *moduleEntry) clone() *moduleEntry {
	c := &moduleEntry{
		module:   e.module,
		handlers: make(map[OpID]Handler, len(e.handlers)),
		ops:      append([]OpID(nil), e.ops...),
		index:    make(map[OpID]int, len(e.index)),
	}
	for op, h := range e.handlers {
		c.handlers[op] = h
	}
	for op, i := range e.index {
		c.index[op] = i
	}
	return c
}

// Dependencies bundles collaborators for the registry.
type Dependencies struct {
	Log     audit.Log
	Logger  *zap.Logger
	Clock   clock.Clock
	Metrics *observability.Metrics
	// Participants are transactional collaborators (currency ledger, asset
	// registry) snapshotted before every mutating call and restored when the
	// call fails.
	Participants []token.Transactional
}

// Registry routes operations to handler modules over one shared state store
// and administers module upgrades. Dispatches are serialized by a per-call
// lock, which doubles as the re-entrancy guard: module-to-module calls happen
// through direct method calls inside the running dispatch, never through a
// second Dispatch.
type Registry struct {
	mu sync.Mutex

	store        *state.Store
	modules      map[string]*moduleEntry
	opOwner      map[OpID]string
	log          audit.Log
	logger       *zap.Logger
	clk          clock.Clock
	metrics      *observability.Metrics
	participants []token.Transactional
}

// New constructs an empty registry over the store.
func New(store *state.Store, deps Dependencies) *Registry {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:        store,
		modules:      make(map[string]*moduleEntry),
		opOwner:      make(map[OpID]string),
		log:          deps.Log,
		logger:       logger,
		clk:          clk,
		metrics:      deps.Metrics,
		participants: deps.Participants,
	}
}

// ApplyBatch atomically applies registration entries, then runs the optional
// init call. Any entry's failure, or init failure, aborts the whole batch.
// Admin only.
func (r *Registry) ApplyBatch(ctx context.Context, caller domain.Identity, entries []BatchEntry, init *InitCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.store.Begin()
	if err := r.requireAdmin(st, caller); err != nil {
		return err
	}

	// Stage on copies so a mid-batch failure leaves the live tables intact.
	modules := make(map[string]*moduleEntry, len(r.modules))
	for name, entry := range r.modules {
		modules[name] = entry.clone()
	}
	opOwner := make(map[OpID]string, len(r.opOwner))
	for op, name := range r.opOwner {
		opOwner[op] = name
	}

	for _, entry := range entries {
		var err error
		switch entry.Action {
		case ActionAdd:
			err = stageAdd(modules, opOwner, entry)
		case ActionReplace:
			err = stageReplace(modules, opOwner, entry)
		case ActionRemove:
			err = stageRemove(modules, opOwner, entry)
		default:
			err = domain.NewValidationError("unknown registry action", map[string]any{"action": entry.Action})
		}
		if err != nil {
			return err
		}
	}

	call := &Call{Caller: caller, Now: r.clk.Now()}
	if init != nil {
		entry, ok := modules[init.Module]
		if !ok {
			return domain.NewValidationError("init target module not registered", map[string]any{"module": init.Module})
		}
		call.Args = init.Args
		snapshots := r.snapshotParticipants()
		if err := entry.module.Init(ctx, st, call); err != nil {
			r.restoreParticipants(snapshots)
			return err
		}
	}

	for _, entry := range entries {
		name := ""
		if entry.Module != nil {
			name = entry.Module.Name()
		}
		call.Emit(audit.RecordRegistryChanged, st.Event.ID, map[string]any{
			"module": name,
			"action": entry.Action,
			"ops":    entry.Ops,
		})
	}

	r.modules = modules
	r.opOwner = opOwner
	r.store.Commit(st)
	r.publish(ctx, call)
	return nil
}

func stageAdd(modules map[string]*moduleEntry, opOwner map[OpID]string, batch BatchEntry) error {
	if batch.Module == nil || len(batch.Module.Operations()) == 0 {
		return domain.NewValidationError("add requires a module with operations", nil)
	}
	name := batch.Module.Name()
	entry, ok := modules[name]
	if !ok {
		entry = &moduleEntry{
			module:   batch.Module,
			handlers: make(map[OpID]Handler),
			index:    make(map[OpID]int),
		}
		modules[name] = entry
	}
	handlers := batch.Module.Operations()
	for _, op := range batch.Ops {
		if owner, mapped := opOwner[op]; mapped {
			return domain.NewStateConflictError("operation already registered", map[string]any{"op": op, "module": owner})
		}
		handler, ok := handlers[op]
		if !ok {
			return domain.NewValidationError("module does not implement operation", map[string]any{"op": op, "module": name})
		}
		opOwner[op] = name
		entry.handlers[op] = handler
		entry.add(op)
	}
	return nil
}

func stageReplace(modules map[string]*moduleEntry, opOwner map[OpID]string, batch BatchEntry) error {
	if batch.Module == nil || len(batch.Module.Operations()) == 0 {
		return domain.NewValidationError("replace requires a module with operations", nil)
	}
	name := batch.Module.Name()
	handlers := batch.Module.Operations()
	for _, op := range batch.Ops {
		owner, mapped := opOwner[op]
		if !mapped {
			return domain.NewValidationError("operation not registered", map[string]any{"op": op})
		}
		if owner == name {
			return domain.NewStateConflictError("operation already handled by module", map[string]any{"op": op, "module": name})
		}
		handler, ok := handlers[op]
		if !ok {
			return domain.NewValidationError("module does not implement operation", map[string]any{"op": op, "module": name})
		}
		old := modules[owner]
		old.remove(op)
		delete(old.handlers, op)
		if len(old.ops) == 0 {
			delete(modules, owner)
		}
		entry, ok := modules[name]
		if !ok {
			entry = &moduleEntry{
				module:   batch.Module,
				handlers: make(map[OpID]Handler),
				index:    make(map[OpID]int),
			}
			modules[name] = entry
		}
		opOwner[op] = name
		entry.handlers[op] = handler
		entry.add(op)
	}
	return nil
}

func stageRemove(modules map[string]*moduleEntry, opOwner map[OpID]string, batch BatchEntry) error {
	if batch.Module != nil {
		return domain.NewValidationError("remove requires the null module reference", map[string]any{"module": batch.Module.Name()})
	}
	for _, op := range batch.Ops {
		owner, mapped := opOwner[op]
		if !mapped {
			return domain.NewValidationError("operation not registered", map[string]any{"op": op})
		}
		entry := modules[owner]
		entry.remove(op)
		delete(entry.handlers, op)
		delete(opOwner, op)
		if len(entry.ops) == 0 {
			delete(modules, owner)
		}
	}
	return nil
}

// Dispatch resolves the operation's handler and runs it transactionally:
// state clone plus collaborator snapshots in, commit on success, restore on
// failure. An unregistered operation fails loudly.
func (r *Registry) Dispatch(ctx context.Context, caller domain.Identity, op OpID, args any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.clk.Now()

	name, ok := r.opOwner[op]
	if !ok {
		r.recordError(op, domain.KindValidation)
		return nil, domain.NewValidationError("unregistered operation", map[string]any{"op": op})
	}
	handler := r.modules[name].handlers[op]

	st := r.store.Begin()
	snapshots := r.snapshotParticipants()

	call := &Call{Op: op, Caller: caller, Args: args, Now: started}
	result, err := handler(ctx, st, call)
	if err != nil {
		r.restoreParticipants(snapshots)
		r.recordError(op, errorKind(err))
		r.logger.Debug("dispatch reverted",
			zap.String("op", string(op)),
			zap.String("caller", string(caller)),
			zap.Error(err),
		)
		return nil, err
	}

	r.store.Commit(st)
	if r.metrics != nil {
		r.metrics.RecordDispatch(string(op), time.Since(started))
	}
	r.publish(ctx, call)
	return result, nil
}

// TransferAdmin hands the administrative identity to another party.
func (r *Registry) TransferAdmin(ctx context.Context, caller, next domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.store.Begin()
	if err := r.requireAdmin(st, caller); err != nil {
		return err
	}
	if next.IsZero() {
		return domain.NewValidationError("admin identity must not be zero", nil)
	}
	st.Admin = next

	call := &Call{Caller: caller, Now: r.clk.Now()}
	call.Emit(audit.RecordRegistryChanged, st.Event.ID, map[string]any{"admin": next})
	r.store.Commit(st)
	r.publish(ctx, call)
	return nil
}

// Modules lists registered modules and their operations. Read-only.
func (r *Registry) Modules() []ModuleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]ModuleInfo, 0, len(r.modules))
	for name, entry := range r.modules {
		infos = append(infos, ModuleInfo{Name: name, Ops: append([]OpID(nil), entry.ops...)})
	}
	return infos
}

// OperationsOf lists the operation IDs a module handles. Read-only.
func (r *Registry) OperationsOf(module string) ([]OpID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.modules[module]
	if !ok {
		return nil, false
	}
	return append([]OpID(nil), entry.ops...), true
}

// ModuleOf resolves which module handles an operation. Read-only.
func (r *Registry) ModuleOf(op OpID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.opOwner[op]
	return name, ok
}

func (r *Registry) requireAdmin(st *state.State, caller domain.Identity) error {
	if caller.IsZero() || caller != st.Admin {
		return domain.NewAuthorizationError("admin identity required")
	}
	return nil
}

func (r *Registry) snapshotParticipants() []any {
	snapshots := make([]any, len(r.participants))
	for i, p := range r.participants {
		snapshots[i] = p.Snapshot()
	}
	return snapshots
}

func (r *Registry) restoreParticipants(snapshots []any) {
	for i, p := range r.participants {
		if snapshots == nil {
			continue
		}
		p.Restore(snapshots[i])
	}
}

func (r *Registry) publish(ctx context.Context, call *Call) {
	if r.log == nil {
		return
	}
	for _, record := range call.Records() {
		r.log.Publish(ctx, record)
	}
}

func (r *Registry) recordError(op OpID, kind domain.ErrorKind) {
	if r.metrics != nil {
		r.metrics.RecordError(string(op), string(kind))
	}
}

func errorKind(err error) domain.ErrorKind {
	var engineErr *domain.Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return domain.KindResource
}
