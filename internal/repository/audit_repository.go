package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-exchange/internal/audit"
	"github.com/spec-kit/ticket-exchange/internal/domain"
)

// AuditRepository persists the append-only audit log.
type AuditRepository interface {
	Insert(ctx context.Context, record audit.Record) error
	ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]audit.Record, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, record audit.Record) error {
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO audit_log (id, record_type, event_id, actor, occurred_at, fields)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = r.pool.Exec(ctx, query,
		record.ID,
		string(record.Type),
		record.EventID,
		string(record.Actor),
		record.At,
		fields,
	)
	return err
}

func (r *auditRepository) ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]audit.Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
        SELECT id, record_type, event_id, actor, occurred_at, fields
        FROM audit_log
        WHERE event_id = $1
        ORDER BY occurred_at ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		var (
			record     audit.Record
			recordType string
			actor      string
			occurredAt time.Time
			fields     []byte
		)
		if err := rows.Scan(&record.ID, &recordType, &record.EventID, &actor, &occurredAt, &fields); err != nil {
			return nil, err
		}
		record.Type = audit.RecordType(recordType)
		record.Actor = domain.Identity(actor)
		record.At = occurredAt
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &record.Fields); err != nil {
				return nil, err
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
