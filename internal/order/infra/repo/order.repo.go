package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type OrderRepo struct {
	repo           *sqlx.DB
	db             sqlx.ExtContext
	tableName      string
	linesTableName string
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{
		repo:           db,
		db:             db,
		tableName:      pkgconstants.DBTableName_Orders,
		linesTableName: pkgconstants.DBTableName_OrderProducts,
	}
}

func (r *OrderRepo) GetRepo() *sqlx.DB {
	return r.repo
}

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo {
	cp := *r
	cp.db = tx
	return &cp
}

// Create writes the order row and all of its line items. Run it inside a transaction,
// otherwise a failing line insert leaves the order row behind.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	query := fmt.Sprintf("INSERT INTO %s (id, customer_id, created_at) VALUES(:id, :customer_id, :created_at)", r.tableName)
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, o); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if len(o.Products) == 0 {
		return o, nil
	}
	linesQuery := fmt.Sprintf("INSERT INTO %s (id, order_id, product_id, price, quantity) VALUES(:id, :order_id, :product_id, :price, :quantity)", r.linesTableName)
	if _, err := sqlx.NamedExecContext(ctx, r.db, linesQuery, o.Products); err != nil {
		return nil, fmt.Errorf("insert order products: %w", err)
	}
	return o, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Order], error) {
	o := domain.Order{}
	query := fmt.Sprintf("SELECT id, customer_id, created_at FROM %s WHERE id = $1", r.tableName)
	err := sqlx.GetContext(ctx, r.db, &o, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pkgtypes.None[domain.Order](), nil
		}
		return pkgtypes.None[domain.Order](), err
	}

	o.Products = []domain.OrderProduct{}
	linesQuery := fmt.Sprintf("SELECT id, order_id, product_id, price, quantity FROM %s WHERE order_id = $1 ORDER BY product_id", r.linesTableName)
	if err := sqlx.SelectContext(ctx, r.db, &o.Products, linesQuery, id); err != nil {
		return pkgtypes.None[domain.Order](), err
	}
	return pkgtypes.Some(o), nil
}
