package memstore

import (
	"context"

	"github.com/k-code-yt/go-order-placement/internal/order/domain"
)

type EventRepo struct {
	scope
}

func (r *EventRepo) Insert(ctx context.Context, e *domain.Event) (string, error) {
	err := r.with(ctx, func(st *state) error {
		st.appendEvent(*e)
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.EventId, nil
}

// ProcessPending hands up to limit pending events to fn in insertion order and marks each one
// produced once fn accepts it. It stops at the first failure. fn runs without the store lock;
// claimed events are skipped by concurrent callers until they are settled.
func (r *EventRepo) ProcessPending(ctx context.Context, limit int, fn func(ctx context.Context, e *domain.Event) error) (int, error) {
	batch, err := r.claimPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	produced := make(map[string]struct{}, len(batch))
	var fnErr error
	for i := range batch {
		if fnErr = fn(ctx, &batch[i]); fnErr != nil {
			break
		}
		produced[batch[i].EventId] = struct{}{}
	}

	if err := r.settle(context.WithoutCancel(ctx), batch, produced); err != nil {
		return 0, err
	}
	return len(produced), fnErr
}

func (r *EventRepo) claimPending(ctx context.Context, limit int) ([]domain.Event, error) {
	batch := []domain.Event{}
	err := r.with(ctx, func(st *state) error {
		for _, e := range st.events {
			if len(batch) >= limit {
				break
			}
			if e.Status != domain.EventStatus_Pending {
				continue
			}
			if _, ok := st.inflight[e.EventId]; ok {
				continue
			}
			st.inflight[e.EventId] = struct{}{}
			batch = append(batch, e)
		}
		return nil
	})
	return batch, err
}

// settle marks the produced events and releases the claim on the whole batch.
func (r *EventRepo) settle(ctx context.Context, batch []domain.Event, produced map[string]struct{}) error {
	return r.with(ctx, func(st *state) error {
		for i := range st.events {
			if _, ok := produced[st.events[i].EventId]; ok {
				st.setEventStatus(i, domain.EventStatus_Produced)
			}
		}
		for _, e := range batch {
			delete(st.inflight, e.EventId)
		}
		return nil
	})
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := r.with(ctx, func(st *state) error {
		events = append([]domain.Event(nil), st.events...)
		return nil
	})
	return events, err
}
