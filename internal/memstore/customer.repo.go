package memstore

import (
	"context"

	"github.com/k-code-yt/go-order-placement/internal/customer/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type CustomerRepo struct {
	scope
}

func (r *CustomerRepo) Insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	err := r.with(ctx, func(st *state) error {
		if _, ok := st.customers[c.ID]; ok {
			return pkgerrors.NewDuplicateKeyError(nil)
		}
		for _, existing := range st.customers {
			if existing.Email == c.Email {
				return pkgerrors.NewDuplicateKeyError(nil)
			}
		}
		st.putCustomer(*c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Customer], error) {
	res := pkgtypes.None[domain.Customer]()
	err := r.with(ctx, func(st *state) error {
		if c, ok := st.customers[id]; ok {
			res = pkgtypes.Some(c)
		}
		return nil
	})
	return res, err
}
