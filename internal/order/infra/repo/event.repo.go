package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
	"github.com/sirupsen/logrus"
)

const eventColumns = "event_id, event_type, timestamp, status, parent_id, parent_type, parent_metadata"

type EventRepo struct {
	repo      *sqlx.DB
	db        sqlx.ExtContext
	tableName string
}

func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{
		repo:      db,
		db:        db,
		tableName: pkgconstants.DBTableName_OutboxEvents,
	}
}

func (r *EventRepo) GetRepo() *sqlx.DB {
	return r.repo
}

func (r *EventRepo) WithTx(tx *sqlx.Tx) *EventRepo {
	cp := *r
	cp.db = tx
	return &cp
}

func (r *EventRepo) Insert(ctx context.Context, e *domain.Event) (string, error) {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES(:event_id, :event_type, :timestamp, :status, :parent_id, :parent_type, :parent_metadata)", r.tableName, eventColumns)
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, e); err != nil {
		return "", err
	}
	return e.EventId, nil
}

// ProcessPending locks up to limit pending events, oldest first, and hands each to fn.
// Events fn accepted are marked produced and committed even when a later one fails; the
// failure is returned after the commit. Rows locked by another relay are skipped.
func (r *EventRepo) ProcessPending(ctx context.Context, limit int, fn func(ctx context.Context, e *domain.Event) error) (int, error) {
	var fnErr error
	n, err := postgres.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (int, error) {
		events := []domain.Event{}
		query := fmt.Sprintf("SELECT %s FROM %s WHERE status = $1 ORDER BY timestamp LIMIT $2 FOR UPDATE SKIP LOCKED", eventColumns, r.tableName)
		if err := tx.SelectContext(ctx, &events, query, domain.EventStatus_Pending, limit); err != nil {
			return 0, err
		}

		produced := []string{}
		for i := range events {
			if fnErr = fn(ctx, &events[i]); fnErr != nil {
				break
			}
			produced = append(produced, events[i].EventId)
		}
		if len(produced) == 0 {
			return 0, nil
		}
		return r.updateStatusByIds(ctx, tx, produced, domain.EventStatus_Produced)
	})
	if err != nil {
		return 0, err
	}
	return n, fnErr
}

func (r *EventRepo) updateStatusByIds(ctx context.Context, tx *sqlx.Tx, eventIds []string, status domain.EventStatus) (int, error) {
	query, args, err := sqlx.In(fmt.Sprintf("UPDATE %s SET status = ? WHERE event_id IN (?)", r.tableName), status, eventIds)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if int(rows) != len(eventIds) {
		logrus.WithFields(logrus.Fields{
			"expected": len(eventIds),
			"updated":  rows,
		}).Warn("OUTBOX:STATUS_MISMATCH")
	}
	return int(rows), nil
}

// List returns every event, oldest first.
func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	events := []domain.Event{}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY timestamp", eventColumns, r.tableName)
	if err := sqlx.SelectContext(ctx, r.db, &events, query); err != nil {
		return nil, err
	}
	return events, nil
}
