package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	product "github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/k-code-yt/go-order-placement/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/k-code-yt/go-order-placement/internal/order/application"

type CreateOrderRequest struct {
	CustomerID string                    `json:"customer_id"`
	Products   []product.ProductQuantity `json:"products"`
}

type CreateOrderService struct {
	tx       Transactor
	strict   bool
	tracer   trace.Tracer
	notifier OrderNotifier
}

type CreateOrderOption func(*CreateOrderService)

// WithLenientProductLookup keeps going when only some requested ids resolve; unknown ids are
// left out of the order instead of failing it.
func WithLenientProductLookup() CreateOrderOption {
	return func(s *CreateOrderService) {
		s.strict = false
	}
}

func WithTracer(tracer trace.Tracer) CreateOrderOption {
	return func(s *CreateOrderService) {
		s.tracer = tracer
	}
}

func WithNotifier(n OrderNotifier) CreateOrderOption {
	return func(s *CreateOrderService) {
		s.notifier = n
	}
}

func NewCreateOrderService(tx Transactor, opts ...CreateOrderOption) *CreateOrderService {
	s := &CreateOrderService{
		tx:     tx,
		strict: true,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute places an order. Order, outbox event and stock decrement are committed in one
// transaction; any error leaves every store untouched.
func (s *CreateOrderService) Execute(ctx context.Context, req *CreateOrderRequest) (order *domain.Order, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "CreateOrderService.Execute", trace.WithAttributes(
		attribute.String("customer.id", req.CustomerID),
		attribute.Int("products.count", len(req.Products)),
	))
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = strconv.Itoa(pkgerrors.GetErrorCode(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ObserveOrder(result, started)
		span.End()
	}()

	if err := validateQuantities(req.Products); err != nil {
		return nil, err
	}

	ids := product.IDs(req.Products)
	requested := product.RequestedByID(req.Products)
	decrements := make([]product.ProductQuantity, 0, len(ids))
	for _, id := range ids {
		decrements = append(decrements, product.ProductQuantity{ID: id, Quantity: requested[id]})
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, r *Repos) error {
		c, err := s.findCustomer(ctx, r, req.CustomerID)
		if err != nil {
			return err
		}

		lines, err := s.priceLines(ctx, r, ids, requested)
		if err != nil {
			return err
		}

		created, err := r.Orders.Create(ctx, domain.NewOrder(c, lines))
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		event, err := domain.OrderToEvent(created)
		if err != nil {
			return pkgerrors.NewJSONParsingError(err)
		}
		if _, err := r.Events.Insert(ctx, event); err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}

		if err := s.decrementStock(ctx, r, decrements); err != nil {
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"customerID": req.CustomerID,
			"code":       pkgerrors.GetErrorCode(err),
		}).WithError(err).Warn("ORDER:REJECTED")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"orderID":    order.ID,
		"customerID": order.CustomerID,
		"lines":      len(order.Products),
		"total":      order.Total(),
	}).Info("ORDER:CREATED")

	if s.notifier != nil {
		s.notifier.OrderCreated(order)
	}
	return order, nil
}

func (s *CreateOrderService) findCustomer(ctx context.Context, r *Repos, customerID string) (*customer.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "CustomerFinder.FindByID")
	defer span.End()

	found, err := r.Customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	c, ok := found.Get()
	if !ok {
		return nil, pkgerrors.NewInvalidCustomerError(customerID)
	}
	return &c, nil
}

// priceLines loads the requested products and turns them into priced line items, checking stock.
func (s *CreateOrderService) priceLines(ctx context.Context, r *Repos, ids []string, requested map[string]int) ([]domain.OrderProduct, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.FindAllByID", trace.WithAttributes(
		attribute.StringSlice("product.ids", ids),
	))
	defer span.End()

	products, err := r.Products.FindAllByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	if len(products) == 0 {
		return nil, pkgerrors.NewProductsNotFoundError(ids...)
	}

	if s.strict {
		if missing := missingIDs(ids, products); len(missing) > 0 {
			return nil, pkgerrors.NewProductsNotFoundError(missing...)
		}
	}

	lines := make([]domain.OrderProduct, 0, len(products))
	outOfStock := []string{}
	for _, p := range products {
		qty, ok := requested[p.ID]
		if !ok {
			return nil, pkgerrors.NewProductsNotFoundError(p.ID)
		}
		if qty > p.Quantity {
			outOfStock = append(outOfStock, p.ID)
			continue
		}
		lines = append(lines, domain.OrderProduct{
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  qty,
		})
	}
	if len(outOfStock) > 0 {
		return nil, pkgerrors.NewInsufficientStockError(outOfStock...)
	}
	return lines, nil
}

func (s *CreateOrderService) decrementStock(ctx context.Context, r *Repos, items []product.ProductQuantity) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.UpdateQuantity")
	defer span.End()

	if _, err := r.Products.UpdateQuantity(ctx, items); err != nil {
		return fmt.Errorf("failed to decrement inventory: %w", err)
	}
	return nil
}

func validateQuantities(items []product.ProductQuantity) error {
	invalid := []string{}
	for _, item := range items {
		if item.Quantity <= 0 {
			invalid = append(invalid, item.ID)
		}
	}
	if len(invalid) > 0 {
		return pkgerrors.NewInvalidQuantityError(invalid...)
	}
	return nil
}

func missingIDs(ids []string, found []product.Product) []string {
	present := make(map[string]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	missing := []string{}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
