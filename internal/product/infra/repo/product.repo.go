package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
	"github.com/lib/pq"
)

const productColumns = "id, name, price, quantity, created_at, updated_at"

type ProductRepo struct {
	repo      *sqlx.DB
	db        sqlx.ExtContext
	tableName string
	// lockRows makes FindAllByID take row locks; only set for tx-bound copies.
	lockRows bool
}

func NewProductRepo(db *sqlx.DB) *ProductRepo {
	return &ProductRepo{
		repo:      db,
		db:        db,
		tableName: pkgconstants.DBTableName_Products,
	}
}

func (r *ProductRepo) GetRepo() *sqlx.DB {
	return r.repo
}

// WithTx returns a copy of the repo bound to tx. Products read through it are locked
// until tx ends.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo {
	cp := *r
	cp.db = tx
	cp.lockRows = true
	return &cp
}

// Create inserts a new product. Names are not checked for uniqueness here.
func (r *ProductRepo) Create(ctx context.Context, name string, price float64, quantity int) (*domain.Product, error) {
	p := domain.NewProduct(name, price, quantity)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES(:id, :name, :price, :quantity, :created_at, :updated_at)", r.tableName, productColumns)
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepo) FindByName(ctx context.Context, name string) (pkgtypes.Option[domain.Product], error) {
	p := domain.Product{}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE name = $1 ORDER BY created_at ASC LIMIT 1", productColumns, r.tableName)
	err := sqlx.GetContext(ctx, r.db, &p, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pkgtypes.None[domain.Product](), nil
		}
		return pkgtypes.None[domain.Product](), err
	}
	return pkgtypes.Some(p), nil
}

// FindAllByID returns the existing products among ids, in the order ids were given.
// Unknown ids are omitted.
func (r *ProductRepo) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	products := []domain.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1) ORDER BY id", productColumns, r.tableName)
	if r.lockRows {
		// id order keeps concurrent lockers from deadlocking
		query += " FOR UPDATE"
	}
	rows := []domain.Product{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
			delete(byID, id)
		}
	}
	return products, nil
}

// UpdateQuantity subtracts the requested amounts from the stored quantities in one statement
// and returns the updated rows. Ids that do not exist are ignored.
func (r *ProductRepo) UpdateQuantity(ctx context.Context, items []domain.ProductQuantity) ([]domain.Product, error) {
	updated := []domain.Product{}
	if len(items) == 0 {
		return updated, nil
	}

	requested := domain.RequestedByID(items)
	ids := domain.IDs(items)
	amounts := make([]int64, 0, len(ids))
	for _, id := range ids {
		amounts = append(amounts, int64(requested[id]))
	}

	query := fmt.Sprintf(`UPDATE %[1]s AS p SET quantity = p.quantity - d.amount, updated_at = $3
		FROM unnest($1::text[], $2::bigint[]) AS d(id, amount)
		WHERE p.id = d.id
		RETURNING p.id, p.name, p.price, p.quantity, p.created_at, p.updated_at`, r.tableName)
	err := sqlx.SelectContext(ctx, r.db, &updated, query, pq.Array(ids), pq.Array(amounts), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return updated, nil
}
