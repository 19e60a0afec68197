package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	order "github.com/k-code-yt/go-order-placement/internal/order/domain"
	"github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCreateAndFindByName(t *testing.T) {
	ctx := context.Background()
	products := NewStore().Products()

	p, err := products.Create(ctx, "keyboard", 49.9, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	// names are not unique
	_, err = products.Create(ctx, "keyboard", 10, 1)
	require.NoError(t, err)

	found, err := products.FindByName(ctx, "keyboard")
	require.NoError(t, err)
	got, ok := found.Get()
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)

	missing, err := products.FindByName(ctx, "mouse")
	require.NoError(t, err)
	assert.False(t, missing.IsSome())
}

func TestFindAllByIDOmitsUnknownAndIsRepeatable(t *testing.T) {
	ctx := context.Background()
	products := NewStore().Products()
	require.NoError(t, products.Put(ctx, domain.Product{ID: "p1", Price: 100, Quantity: 5}))
	require.NoError(t, products.Put(ctx, domain.Product{ID: "p2", Price: 7, Quantity: 1}))

	first, err := products.FindAllByID(ctx, []string{"p2", "nope", "p1", "p2"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "p2", first[0].ID)
	assert.Equal(t, "p1", first[1].ID)

	second, err := products.FindAllByID(ctx, []string{"p2", "nope", "p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	none, err := products.FindAllByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	products := NewStore().Products()
	require.NoError(t, products.Put(ctx, domain.Product{ID: "p1", Price: 100, Quantity: 5}))
	require.NoError(t, products.Put(ctx, domain.Product{ID: "p2", Price: 7, Quantity: 1}))

	updated, err := products.UpdateQuantity(ctx, []domain.ProductQuantity{
		{ID: "p1", Quantity: 2},
		{ID: "ghost", Quantity: 9},
		{ID: "p2", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)

	all, err := products.FindAllByID(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, 3, all[0].Quantity)
	// the store itself does not clamp at zero
	assert.Equal(t, -2, all[1].Quantity)
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Put(ctx, domain.Product{ID: "p1", Quantity: 5}))

	err := s.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
		_, err := r.Products.UpdateQuantity(ctx, []domain.ProductQuantity{{ID: "p1", Quantity: 1}})
		return err
	})
	require.NoError(t, err)

	all, err := s.Products().FindAllByID(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 4, all[0].Quantity)
}

func TestInTxDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Put(ctx, domain.Product{ID: "p1", Quantity: 5}))
	c := customer.NewCustomer("Ann", "ann@example.com")
	_, err := s.Customers().Insert(ctx, c)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
		o := order.NewOrder(c, []order.OrderProduct{{ProductID: "p1", Price: 1, Quantity: 1}})
		if _, err := r.Orders.Create(ctx, o); err != nil {
			return err
		}
		if _, err := r.Products.UpdateQuantity(ctx, []domain.ProductQuantity{{ID: "p1", Quantity: 1}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	all, err := s.Products().FindAllByID(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 5, all[0].Quantity)
}

func TestInTxUndoesEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Put(ctx, domain.Product{ID: "p1", Name: "lamp", Quantity: 5}))
	_, err := s.Events().Insert(ctx, order.NewEvent(order.EventType_OrderCreated, "o0", order.EventParentType_Order, []byte(`{}`)))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
		if _, err := r.Customers.(*CustomerRepo).Insert(ctx, customer.NewCustomer("Bob", "bob@example.com")); err != nil {
			return err
		}
		if _, err := r.Events.Insert(ctx, order.NewEvent(order.EventType_OrderCreated, "o1", order.EventParentType_Order, []byte(`{}`))); err != nil {
			return err
		}
		// the same product twice checks that undo restores the oldest value
		for range 2 {
			if _, err := r.Products.UpdateQuantity(ctx, []domain.ProductQuantity{{ID: "p1", Quantity: 2}}); err != nil {
				return err
			}
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := s.Products().FindAllByID(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 5, all[0].Quantity)
	events, err := s.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "o0", events[0].ParentId)
	_, err = s.Customers().Insert(ctx, customer.NewCustomer("Bob", "bob@example.com"))
	assert.NoError(t, err, "rolled back customer frees its email")
}

func TestInTxUndoesWritesOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Products().Put(ctx, domain.Product{ID: "p1", Quantity: 5}))

	assert.Panics(t, func() {
		_ = s.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
			if _, err := r.Products.UpdateQuantity(ctx, []domain.ProductQuantity{{ID: "p1", Quantity: 5}}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	all, err := s.Products().FindAllByID(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 5, all[0].Quantity)
}

func TestCustomerInsertRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	customers := NewStore().Customers()

	_, err := customers.Insert(ctx, customer.NewCustomer("Ann", "ann@example.com"))
	require.NoError(t, err)
	_, err = customers.Insert(ctx, customer.NewCustomer("Ann 2", "ann@example.com"))
	assert.True(t, pkgerrors.IsDuplicateKeyError(err))
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()
	events := NewStore().Events()
	for _, id := range []string{"o1", "o2", "o3"} {
		_, err := events.Insert(ctx, order.NewEvent(order.EventType_OrderCreated, id, order.EventParentType_Order, []byte(`{}`)))
		require.NoError(t, err)
	}

	seen := []string{}
	n, err := events.ProcessPending(ctx, 2, func(ctx context.Context, e *order.Event) error {
		seen = append(seen, e.ParentId)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"o1", "o2"}, seen)

	failure := errors.New("broker down")
	n, err = events.ProcessPending(ctx, 10, func(ctx context.Context, e *order.Event) error {
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, n)

	all, err := events.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.EventStatus_Produced, all[0].Status)
	assert.Equal(t, order.EventStatus_Pending, all[2].Status)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().Products().FindAllByID(ctx, []string{"p1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessPendingDoesNotHoldStoreLock(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	events := s.Events()
	_, err := events.Insert(ctx, order.NewEvent(order.EventType_OrderCreated, "o1", order.EventParentType_Order, []byte(`{}`)))
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := events.ProcessPending(ctx, 10, func(ctx context.Context, e *order.Event) error {
			close(entered)
			<-release
			return nil
		})
		done <- result{n, err}
	}()
	<-entered

	txDone := make(chan error, 1)
	go func() {
		txDone <- s.InTx(ctx, func(ctx context.Context, r *application.Repos) error {
			_, err := r.Events.Insert(ctx, order.NewEvent(order.EventType_OrderCreated, "o2", order.EventParentType_Order, []byte(`{}`)))
			return err
		})
	}()
	select {
	case err := <-txDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(release)
		t.Fatal("transaction waited on the relay callback")
	}

	// the claimed event is not handed out twice
	seen := []string{}
	n, err := events.ProcessPending(ctx, 10, func(ctx context.Context, e *order.Event) error {
		seen = append(seen, e.ParentId)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"o2"}, seen)

	close(release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.n)

	all, err := events.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, e := range all {
		assert.Equal(t, order.EventStatus_Produced, e.Status, e.ParentId)
	}
}

func TestProcessPendingReleasesFailedEvents(t *testing.T) {
	ctx := context.Background()
	events := NewStore().Events()
	_, err := events.Insert(ctx, order.NewEvent(order.EventType_OrderCreated, "o1", order.EventParentType_Order, []byte(`{}`)))
	require.NoError(t, err)

	failure := errors.New("broker down")
	_, err = events.ProcessPending(ctx, 10, func(ctx context.Context, e *order.Event) error {
		return failure
	})
	require.ErrorIs(t, err, failure)

	n, err := events.ProcessPending(ctx, 10, func(ctx context.Context, e *order.Event) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
