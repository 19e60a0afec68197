package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/go-order-placement/internal/customer/domain"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
)

type CustomerRepo struct {
	repo      *sqlx.DB
	db        sqlx.ExtContext
	tableName string
}

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo {
	return &CustomerRepo{
		repo:      db,
		db:        db,
		tableName: pkgconstants.DBTableName_Customers,
	}
}

func (r *CustomerRepo) GetRepo() *sqlx.DB {
	return r.repo
}

// WithTx returns a copy of the repo that runs its queries on tx.
func (r *CustomerRepo) WithTx(tx *sqlx.Tx) *CustomerRepo {
	cp := *r
	cp.db = tx
	return &cp
}

func (r *CustomerRepo) Insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	query := fmt.Sprintf("INSERT INTO %s (id, name, email, created_at) VALUES(:id, :name, :email, :created_at)", r.tableName)
	_, err := sqlx.NamedExecContext(ctx, r.db, query, c)
	if err != nil {
		if postgres.IsDuplicateKeyErr(err) {
			return nil, pkgerrors.NewDuplicateKeyError(err)
		}
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Customer], error) {
	c := domain.Customer{}
	query := fmt.Sprintf("SELECT id, name, email, created_at FROM %s WHERE id = $1", r.tableName)
	err := sqlx.GetContext(ctx, r.db, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pkgtypes.None[domain.Customer](), nil
		}
		return pkgtypes.None[domain.Customer](), err
	}
	return pkgtypes.Some(c), nil
}
