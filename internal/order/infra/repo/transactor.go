package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	customerrepo "github.com/k-code-yt/go-order-placement/internal/customer/infra/repo"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	productrepo "github.com/k-code-yt/go-order-placement/internal/product/infra/repo"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
)

// Transactor runs a unit of work in one Postgres transaction, with every repo bound to it.
type Transactor struct {
	db        *sqlx.DB
	customers *customerrepo.CustomerRepo
	products  *productrepo.ProductRepo
	orders    *OrderRepo
	events    *EventRepo
}

func NewTransactor(db *sqlx.DB, cr *customerrepo.CustomerRepo, pr *productrepo.ProductRepo, or *OrderRepo, er *EventRepo) *Transactor {
	return &Transactor{
		db:        db,
		customers: cr,
		products:  pr,
		orders:    or,
		events:    er,
	}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, r *application.Repos) error) error {
	_, err := postgres.TxClosure(ctx, t.db, func(ctx context.Context, tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, &application.Repos{
			Customers: t.customers.WithTx(tx),
			Products:  t.products.WithTx(tx),
			Orders:    t.orders.WithTx(tx),
			Events:    t.events.WithTx(tx),
		})
	})
	return err
}

func (t *Transactor) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}
