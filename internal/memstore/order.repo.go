package memstore

import (
	"context"

	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type OrderRepo struct {
	scope
}

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	err := r.with(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return pkgerrors.NewDuplicateKeyError(nil)
		}
		st.putOrder(copyOrder(*o))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Order], error) {
	res := pkgtypes.None[domain.Order]()
	err := r.with(ctx, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			res = pkgtypes.Some(copyOrder(o))
		}
		return nil
	})
	return res, err
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.with(ctx, func(st *state) error {
		n = len(st.orders)
		return nil
	})
	return n, err
}
