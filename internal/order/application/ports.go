package application

import (
	"context"

	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	product "github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type CustomerFinder interface {
	FindByID(ctx context.Context, id string) (pkgtypes.Option[customer.Customer], error)
}

type ProductStore interface {
	FindAllByID(ctx context.Context, ids []string) ([]product.Product, error)
	UpdateQuantity(ctx context.Context, items []product.ProductQuantity) ([]product.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Order], error)
}

type EventAppender interface {
	Insert(ctx context.Context, e *domain.Event) (string, error)
}

// Repos is the set of stores bound to one unit of work.
type Repos struct {
	Customers CustomerFinder
	Products  ProductStore
	Orders    OrderStore
	Events    EventAppender
}

// Transactor runs fn against stores that commit together or not at all.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error
}

// OrderNotifier is told about orders once they are committed.
type OrderNotifier interface {
	OrderCreated(o *domain.Order)
}
