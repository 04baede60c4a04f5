package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
	"github.com/spec-kit/ticket-exchange/internal/modules"
	"github.com/spec-kit/ticket-exchange/internal/registry"
)

// RefundWorker reacts to event cancellation with bounded best-effort refund
// sweeps. Claim-based refunds stay the reliable path; the worker just spares
// buyers the claim call while custody funds last.
type RefundWorker struct {
	registry  *registry.Registry
	admin     domain.Identity
	batchSize int
	logger    *zap.Logger
}

// StartRefundWorker subscribes the worker to cancellation records.
func StartRefundWorker(log audit.Log, reg *registry.Registry, admin domain.Identity, batchSize int, logger *zap.Logger) *RefundWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &RefundWorker{registry: reg, admin: admin, batchSize: batchSize, logger: logger}
	log.Subscribe(audit.RecordEventCancelled, w.onCancelled)
	return w
}

// onCancelled runs on the publisher's goroutine, which still holds the
// dispatch lock; the sweep must dispatch from its own goroutine.
func (w *RefundWorker) onCancelled(_ context.Context, record audit.Record) error {
	go w.sweep(context.Background(), record.EventID)
	return nil
}

func (w *RefundWorker) sweep(ctx context.Context, eventID int64) {
	for {
		result, err := w.registry.Dispatch(ctx, w.admin, modules.OpRefundSweep, modules.SweepArgs{Limit: w.batchSize})
		if err != nil {
			w.logger.Warn("refund sweep aborted", zap.Int64("event_id", eventID), zap.Error(err))
			return
		}
		pass, ok := result.(modules.SweepResult)
		if !ok {
			return
		}
		w.logger.Info("refund sweep pass",
			zap.Int64("event_id", eventID),
			zap.Int("refunded", len(pass.Refunded)),
			zap.Bool("exhausted", pass.Exhausted),
		)
		if len(pass.Refunded) == 0 || pass.Exhausted {
			return
		}
	}
}
