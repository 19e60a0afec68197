package main

import (
	"context"
	"fmt"

	customerapp "github.com/k-code-yt/go-order-placement/internal/customer/application"
	customerrepo "github.com/k-code-yt/go-order-placement/internal/customer/infra/repo"
	"github.com/k-code-yt/go-order-placement/internal/memstore"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	orderrepo "github.com/k-code-yt/go-order-placement/internal/order/infra/repo"
	"github.com/k-code-yt/go-order-placement/internal/outbox"
	productapp "github.com/k-code-yt/go-order-placement/internal/product/application"
	productrepo "github.com/k-code-yt/go-order-placement/internal/product/infra/repo"
	"github.com/k-code-yt/go-order-placement/pkg/config"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
)

// backend is the set of stores the server runs on, whichever storage backs them.
type backend struct {
	tx        application.Transactor
	customers customerapp.CustomerStore
	products  productapp.ProductStore
	orders    application.OrderStore
	events    outbox.PendingEvents
	ping      func(ctx context.Context) error
	close     func() error
}

func (b *backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

func newBackend(kind config.StoreBackend) (*backend, error) {
	switch kind {
	case config.StoreBackend_Memory:
		store := memstore.NewStore()
		return &backend{
			tx:        store,
			customers: store.Customers(),
			products:  store.Products(),
			orders:    store.Orders(),
			events:    store.Events(),
			ping:      store.Ping,
			close:     func() error { return nil },
		}, nil

	case config.StoreBackend_Postgres:
		db, err := postgres.NewDBConn(postgres.NewPostgresConfig(pkgconstants.DBNameOrders))
		if err != nil {
			return nil, fmt.Errorf("unable to conn to db: %w", err)
		}
		cr := customerrepo.NewCustomerRepo(db)
		pr := productrepo.NewProductRepo(db)
		or := orderrepo.NewOrderRepo(db)
		er := orderrepo.NewEventRepo(db)
		tx := orderrepo.NewTransactor(db, cr, pr, or, er)
		return &backend{
			tx:        tx,
			customers: cr,
			products:  pr,
			orders:    or,
			events:    er,
			ping:      tx.Ping,
			close:     db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
