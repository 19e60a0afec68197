package memstore

import (
	"context"

	"github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type ProductRepo struct {
	scope
}

func (r *ProductRepo) Create(ctx context.Context, name string, price float64, quantity int) (*domain.Product, error) {
	p := domain.NewProduct(name, price, quantity)
	err := r.with(ctx, func(st *state) error {
		st.putProduct(*p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Put stores p as is, keeping its id. Used for seeding.
func (r *ProductRepo) Put(ctx context.Context, p domain.Product) error {
	return r.with(ctx, func(st *state) error {
		st.putProduct(p)
		return nil
	})
}

func (r *ProductRepo) FindByName(ctx context.Context, name string) (pkgtypes.Option[domain.Product], error) {
	res := pkgtypes.None[domain.Product]()
	err := r.with(ctx, func(st *state) error {
		var found *domain.Product
		for _, p := range st.products {
			if p.Name != name {
				continue
			}
			// names are not unique, take the oldest to stay deterministic
			if found == nil || p.CreatedAt.Before(found.CreatedAt) {
				found = &p
			}
		}
		if found != nil {
			res = pkgtypes.Some(*found)
		}
		return nil
	})
	return res, err
}

func (r *ProductRepo) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	products := []domain.Product{}
	err := r.with(ctx, func(st *state) error {
		products = findAll(st, ids)
		return nil
	})
	return products, err
}

func (r *ProductRepo) UpdateQuantity(ctx context.Context, items []domain.ProductQuantity) ([]domain.Product, error) {
	updated := []domain.Product{}
	err := r.with(ctx, func(st *state) error {
		requested := domain.RequestedByID(items)
		for _, p := range findAll(st, domain.IDs(items)) {
			p = domain.Decrement(p, requested)
			st.putProduct(p)
			updated = append(updated, p)
		}
		return nil
	})
	return updated, err
}

// findAll returns existing products in the order of ids, skipping unknown and repeated ids.
func findAll(st *state, ids []string) []domain.Product {
	products := []domain.Product{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := st.products[id]; ok {
			products = append(products, p)
		}
	}
	return products
}
