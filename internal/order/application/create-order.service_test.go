package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	"github.com/k-code-yt/go-order-placement/internal/memstore"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	product "github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type fixture struct {
	store *memstore.Store
	svc   *application.CreateOrderService
}

func newFixture(t *testing.T, opts ...application.CreateOrderOption) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.NewStore()

	_, err := store.Customers().Insert(ctx, &customer.Customer{ID: "c1", Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.Products().Put(ctx, product.Product{ID: "p1", Name: "lamp", Price: 100, Quantity: 5}))
	require.NoError(t, store.Products().Put(ctx, product.Product{ID: "p2", Name: "bulb", Price: 2.5, Quantity: 10}))

	return &fixture{
		store: store,
		svc:   application.NewCreateOrderService(store, opts...),
	}
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	found, err := f.store.Products().FindAllByID(context.Background(), []string{id})
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0].Quantity
}

func (f *fixture) assertNothingWritten(t *testing.T) {
	t.Helper()
	n, err := f.store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	events, err := f.store.Events().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 5, f.quantity(t, "p1"))
	assert.Equal(t, 10, f.quantity(t, "p2"))
}

func TestCreateOrderSingleProduct(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", order.CustomerID)
	require.NotNil(t, order.Customer)
	require.Len(t, order.Products, 1)
	assert.Equal(t, "p1", order.Products[0].ProductID)
	assert.Equal(t, 100.0, order.Products[0].Price)
	assert.Equal(t, 2, order.Products[0].Quantity)
	assert.Equal(t, 3, f.quantity(t, "p1"))

	stored, err := f.store.Orders().FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSome())

	events, err := f.store.Events().List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventType_OrderCreated, events[0].EventType)
	assert.Equal(t, order.ID, events[0].ParentId)
}

func TestCreateOrderMultipleProducts(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products: []product.ProductQuantity{
			{ID: "p1", Quantity: 5},
			{ID: "p2", Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Products, 2)
	assert.InDelta(t, 510.0, order.Total(), 0.0001)
	assert.Equal(t, 0, f.quantity(t, "p1"))
	assert.Equal(t, 6, f.quantity(t, "p2"))
}

func TestCreateOrderMergesDuplicateIDs(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products: []product.ProductQuantity{
			{ID: "p1", Quantity: 2},
			{ID: "p1", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Products, 1)
	assert.Equal(t, 3, order.Products[0].Quantity)
	assert.Equal(t, 2, f.quantity(t, "p1"))

	_, err = f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products: []product.ProductQuantity{
			{ID: "p1", Quantity: 2},
			{ID: "p1", Quantity: 1},
		},
	})
	assert.True(t, pkgerrors.IsInsufficientStockError(err))
}

func TestCreateOrderRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *application.CreateOrderRequest
		wantErr *pkgerrors.AppError
		details []string
	}{
		{
			name:    "unknown customer",
			req:     &application.CreateOrderRequest{CustomerID: "nobody", Products: []product.ProductQuantity{{ID: "p1", Quantity: 1}}},
			wantErr: pkgerrors.ErrInvalidCustomer,
			details: []string{"nobody"},
		},
		{
			name:    "all products unknown",
			req:     &application.CreateOrderRequest{CustomerID: "c1", Products: []product.ProductQuantity{{ID: "x1", Quantity: 1}, {ID: "x2", Quantity: 1}}},
			wantErr: pkgerrors.ErrProductsNotFound,
			details: []string{"x1", "x2"},
		},
		{
			name:    "empty product list",
			req:     &application.CreateOrderRequest{CustomerID: "c1"},
			wantErr: pkgerrors.ErrProductsNotFound,
		},
		{
			name:    "some products unknown",
			req:     &application.CreateOrderRequest{CustomerID: "c1", Products: []product.ProductQuantity{{ID: "p1", Quantity: 1}, {ID: "x9", Quantity: 1}}},
			wantErr: pkgerrors.ErrProductsNotFound,
			details: []string{"x9"},
		},
		{
			name:    "quantity above stock",
			req:     &application.CreateOrderRequest{CustomerID: "c1", Products: []product.ProductQuantity{{ID: "p1", Quantity: 10}}},
			wantErr: pkgerrors.ErrInsufficientStock,
			details: []string{"p1"},
		},
		{
			name:    "one line above stock fails the batch",
			req:     &application.CreateOrderRequest{CustomerID: "c1", Products: []product.ProductQuantity{{ID: "p2", Quantity: 1}, {ID: "p1", Quantity: 6}}},
			wantErr: pkgerrors.ErrInsufficientStock,
			details: []string{"p1"},
		},
		{
			name:    "non positive quantity",
			req:     &application.CreateOrderRequest{CustomerID: "c1", Products: []product.ProductQuantity{{ID: "p1", Quantity: 0}, {ID: "p2", Quantity: -1}}},
			wantErr: pkgerrors.ErrInvalidQuantity,
			details: []string{"p1", "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			order, err := f.svc.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.wantErr)

			var appErr *pkgerrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantErr.Message, appErr.Message)
			if tt.details != nil {
				assert.Equal(t, tt.details, appErr.Details)
			}
			f.assertNothingWritten(t)
		})
	}
}

func TestCreateOrderLenientLookupDropsUnknownIDs(t *testing.T) {
	f := newFixture(t, application.WithLenientProductLookup())

	order, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products: []product.ProductQuantity{
			{ID: "p1", Quantity: 1},
			{ID: "x9", Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Products, 1)
	assert.Equal(t, "p1", order.Products[0].ProductID)
	assert.Equal(t, 4, f.quantity(t, "p1"))

	_, err = f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "x9", Quantity: 4}},
	})
	assert.True(t, pkgerrors.IsProductsNotFoundError(err))
}

type failingDecrement struct {
	application.ProductStore
}

func (failingDecrement) UpdateQuantity(ctx context.Context, items []product.ProductQuantity) ([]product.Product, error) {
	return nil, errors.New("connection reset")
}

type faultyTransactor struct {
	inner application.Transactor
}

func (f faultyTransactor) InTx(ctx context.Context, fn func(ctx context.Context, r *application.Repos) error) error {
	return f.inner.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
		r.Products = failingDecrement{r.Products}
		return fn(ctx, r)
	})
}

func TestCreateOrderRollsBackWhenDecrementFails(t *testing.T) {
	f := newFixture(t)
	svc := application.NewCreateOrderService(faultyTransactor{inner: f.store})

	order, err := svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 2}},
	})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.Contains(t, err.Error(), "failed to decrement inventory")
	f.assertNothingWritten(t)
}

func TestCreateOrderConcurrentCallersNeverOversell(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
				CustomerID: "c1",
				Products:   []product.ProductQuantity{{ID: "p1", Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsInsufficientStockError(err))
	}
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, f.quantity(t, "p1"))
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func (n *recordingNotifier) OrderCreated(o *domain.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

func TestCreateOrderNotifiesOnlyCommittedOrders(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newFixture(t, application.WithNotifier(notifier))

	_, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 10}},
	})
	require.Error(t, err)
	assert.Empty(t, notifier.orders)

	order, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, notifier.orders, 1)
	assert.Equal(t, order.ID, notifier.orders[0].ID)
}

func TestCreateOrderRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := newFixture(t, application.WithTracer(tp.Tracer("test")))

	_, err := f.svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	names := []string{}
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{
		"CustomerFinder.FindByID",
		"ProductStore.FindAllByID",
		"ProductStore.UpdateQuantity",
		"CreateOrderService.Execute",
	}, names)
}

type spanCapturingDecrement struct {
	application.ProductStore
	spanID *trace.SpanID
}

func (d spanCapturingDecrement) UpdateQuantity(ctx context.Context, items []product.ProductQuantity) ([]product.Product, error) {
	*d.spanID = trace.SpanFromContext(ctx).SpanContext().SpanID()
	return d.ProductStore.UpdateQuantity(ctx, items)
}

type spanCapturingTransactor struct {
	inner  application.Transactor
	spanID *trace.SpanID
}

func (c spanCapturingTransactor) InTx(ctx context.Context, fn func(ctx context.Context, r *application.Repos) error) error {
	return c.inner.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
		r.Products = spanCapturingDecrement{ProductStore: r.Products, spanID: c.spanID}
		return fn(ctx, r)
	})
}

func TestCreateOrderDecrementRunsInsideItsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := newFixture(t)

	var got trace.SpanID
	svc := application.NewCreateOrderService(
		spanCapturingTransactor{inner: f.store, spanID: &got},
		application.WithTracer(tp.Tracer("test")),
	)
	_, err := svc.Execute(context.Background(), &application.CreateOrderRequest{
		CustomerID: "c1",
		Products:   []product.ProductQuantity{{ID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	var want trace.SpanID
	for _, span := range recorder.Ended() {
		if span.Name() == "ProductStore.UpdateQuantity" {
			want = span.SpanContext().SpanID()
		}
	}
	require.True(t, want.IsValid())
	assert.Equal(t, want, got)
}
