package application

import (
	"context"
	"fmt"

	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
)

type FindOrderService struct {
	orders    OrderStore
	customers CustomerFinder
}

func NewFindOrderService(orders OrderStore, customers CustomerFinder) *FindOrderService {
	return &FindOrderService{
		orders:    orders,
		customers: customers,
	}
}

func (s *FindOrderService) Execute(ctx context.Context, orderID string) (*domain.Order, error) {
	found, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	o, ok := found.Get()
	if !ok {
		return nil, pkgerrors.NewOrderNotFoundError(orderID)
	}

	c, err := s.customers.FindByID(ctx, o.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order customer: %w", err)
	}
	if cust, ok := c.Get(); ok {
		o.Customer = &cust
	}
	return &o, nil
}
