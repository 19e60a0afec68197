//go:build integration

package repo_test

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
	customerrepo "github.com/k-code-yt/go-order-placement/internal/customer/infra/repo"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	orderrepo "github.com/k-code-yt/go-order-placement/internal/order/infra/repo"
	product "github.com/k-code-yt/go-order-placement/internal/product/domain"
	productrepo "github.com/k-code-yt/go-order-placement/internal/product/infra/repo"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type pgEnv struct {
	db        *sqlx.DB
	customers *customerrepo.CustomerRepo
	products  *productrepo.ProductRepo
	orders    *orderrepo.OrderRepo
	events    *orderrepo.EventRepo
	tx        *orderrepo.Transactor
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "..", "migrations", "orders")
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "user",
				"POSTGRES_PASSWORD": "pass",
				"POSTGRES_DB":       "orders",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &postgres.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "pass",
		DBName:   "orders",
		SSLMode:  "disable",
	}
	require.NoError(t, postgres.MigrateUp(migrationsDir(t), cfg))

	db, err := postgres.NewDBConn(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &pgEnv{
		db:        db,
		customers: customerrepo.NewCustomerRepo(db),
		products:  productrepo.NewProductRepo(db),
		orders:    orderrepo.NewOrderRepo(db),
		events:    orderrepo.NewEventRepo(db),
	}
	env.tx = orderrepo.NewTransactor(db, env.customers, env.products, env.orders, env.events)
	return env
}

func seedProduct(t *testing.T, db *sqlx.DB, id string, price float64, qty int) {
	t.Helper()
	_, err := db.Exec("INSERT INTO products (id, name, price, quantity) VALUES ($1, $2, $3, $4)", id, "product "+id, price, qty)
	require.NoError(t, err)
}

func quantityOf(t *testing.T, env *pgEnv, id string) int {
	t.Helper()
	found, err := env.products.FindAllByID(context.Background(), []string{id})
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0].Quantity
}

func TestPostgresRepos(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()

	_, err := env.customers.Insert(ctx, &customer.Customer{ID: "c1", Name: "Ann", Email: "ann@example.com", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	seedProduct(t, env.db, "p1", 100, 5)
	seedProduct(t, env.db, "p2", 2.5, 10)

	t.Run("duplicate customer email", func(t *testing.T) {
		_, err := env.customers.Insert(ctx, customer.NewCustomer("Other", "ann@example.com"))
		assert.True(t, pkgerrors.IsDuplicateKeyError(err))
	})

	t.Run("product create and find by name", func(t *testing.T) {
		created, err := env.products.Create(ctx, "lamp", 19.99, 3)
		require.NoError(t, err)

		found, err := env.products.FindByName(ctx, "lamp")
		require.NoError(t, err)
		p, ok := found.Get()
		require.True(t, ok)
		assert.Equal(t, created.ID, p.ID)
		assert.InDelta(t, 19.99, p.Price, 0.001)

		missing, err := env.products.FindByName(ctx, "chair")
		require.NoError(t, err)
		assert.False(t, missing.IsSome())
	})

	t.Run("find all by id omits unknown ids and is stable", func(t *testing.T) {
		first, err := env.products.FindAllByID(ctx, []string{"p2", "nope", "p1"})
		require.NoError(t, err)
		second, err := env.products.FindAllByID(ctx, []string{"p2", "nope", "p1"})
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, "p2", first[0].ID)
		assert.Equal(t, "p1", first[1].ID)
		assert.Equal(t, first, second)
	})

	t.Run("place order", func(t *testing.T) {
		svc := application.NewCreateOrderService(env.tx)
		order, err := svc.Execute(ctx, &application.CreateOrderRequest{
			CustomerID: "c1",
			Products:   []product.ProductQuantity{{ID: "p1", Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, quantityOf(t, env, "p1"))

		found, err := application.NewFindOrderService(env.orders, env.customers).Execute(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, found.Products, 1)
		assert.Equal(t, "p1", found.Products[0].ProductID)
		assert.InDelta(t, 100.0, found.Products[0].Price, 0.001)
		assert.Equal(t, 2, found.Products[0].Quantity)

		_, err = svc.Execute(ctx, &application.CreateOrderRequest{
			CustomerID: "c1",
			Products:   []product.ProductQuantity{{ID: "p1", Quantity: 10}},
		})
		assert.True(t, pkgerrors.IsInsufficientStockError(err))
		assert.Equal(t, 3, quantityOf(t, env, "p1"))
	})

	t.Run("concurrent orders do not oversell", func(t *testing.T) {
		seedProduct(t, env.db, "p3", 1, 4)
		svc := application.NewCreateOrderService(env.tx)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Execute(ctx, &application.CreateOrderRequest{
					CustomerID: "c1",
					Products:   []product.ProductQuantity{{ID: "p3", Quantity: 1}},
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		ok := 0
		for err := range errs {
			if err == nil {
				ok++
			}
		}
		assert.Equal(t, 4, ok)
		assert.Equal(t, 0, quantityOf(t, env, "p3"))
	})

	t.Run("outbox processing", func(t *testing.T) {
		events, err := env.events.List(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, events)

		seen := 0
		n, err := env.events.ProcessPending(ctx, 100, func(ctx context.Context, e *domain.Event) error {
			seen++
			assert.Equal(t, domain.EventType_OrderCreated, e.EventType)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, seen, n)

		n, err = env.events.ProcessPending(ctx, 100, func(ctx context.Context, e *domain.Event) error {
			return errors.New("should not be called")
		})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
