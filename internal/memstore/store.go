// Package memstore keeps customers, products, orders and outbox events in process memory.
// Transactions hold the store lock for their whole duration, write to the live state and
// keep an undo log that is replayed when they fail.
package memstore

import (
	"context"
	"sync"

	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	order "github.com/k-code-yt/go-order-placement/internal/order/domain"
	product "github.com/k-code-yt/go-order-placement/internal/product/domain"
)

type state struct {
	customers map[string]customer.Customer
	products  map[string]product.Product
	orders    map[string]order.Order
	events    []order.Event
	// inflight holds ids of events handed to a relay and not yet settled.
	inflight map[string]struct{}

	journaling bool
	undo       []func()
}

func newState() *state {
	return &state{
		customers: make(map[string]customer.Customer),
		products:  make(map[string]product.Product),
		orders:    make(map[string]order.Order),
		events:    []order.Event{},
		inflight:  make(map[string]struct{}),
	}
}

func (st *state) record(undo func()) {
	if st.journaling {
		st.undo = append(st.undo, undo)
	}
}

func (st *state) begin() {
	st.journaling = true
	st.undo = st.undo[:0]
}

func (st *state) commit() {
	st.journaling = false
	st.undo = st.undo[:0]
}

func (st *state) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.commit()
}

func put[V any](st *state, m map[string]V, key string, v V) {
	prev, had := m[key]
	st.record(func() {
		if had {
			m[key] = prev
			return
		}
		delete(m, key)
	})
	m[key] = v
}

func (st *state) putCustomer(c customer.Customer) {
	put(st, st.customers, c.ID, c)
}

func (st *state) putProduct(p product.Product) {
	put(st, st.products, p.ID, p)
}

func (st *state) putOrder(o order.Order) {
	put(st, st.orders, o.ID, o)
}

func (st *state) appendEvent(e order.Event) {
	n := len(st.events)
	st.record(func() {
		st.events = st.events[:n]
	})
	st.events = append(st.events, e)
}

func (st *state) setEventStatus(i int, status order.EventStatus) {
	prev := st.events[i].Status
	st.record(func() {
		st.events[i].Status = prev
	})
	st.events[i].Status = status
}

func copyOrder(o order.Order) order.Order {
	o.Products = append([]order.OrderProduct(nil), o.Products...)
	o.Customer = nil
	return o
}

type Store struct {
	mu *sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{
		mu: new(sync.Mutex),
		st: newState(),
	}
}

// scope runs a repo call against the live state, taking the lock unless a transaction already holds it.
type scope struct {
	store *Store
	inTx  bool
}

func (sc scope) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sc.inTx {
		return fn(sc.store.st)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.st)
}

func (s *Store) Customers() *CustomerRepo {
	return &CustomerRepo{scope{store: s}}
}

func (s *Store) Products() *ProductRepo {
	return &ProductRepo{scope{store: s}}
}

func (s *Store) Orders() *OrderRepo {
	return &OrderRepo{scope{store: s}}
}

func (s *Store) Events() *EventRepo {
	return &EventRepo{scope{store: s}}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r *application.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := false
	s.st.begin()
	defer func() {
		if !committed {
			s.st.rollback()
		}
	}()

	sc := scope{store: s, inTx: true}
	repos := &application.Repos{
		Customers: &CustomerRepo{sc},
		Products:  &ProductRepo{sc},
		Orders:    &OrderRepo{sc},
		Events:    &EventRepo{sc},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.st.commit()
	committed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
