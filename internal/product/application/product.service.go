package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
	"github.com/sirupsen/logrus"
)

type ProductStore interface {
	Create(ctx context.Context, name string, price float64, quantity int) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (pkgtypes.Option[domain.Product], error)
	FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error)
}

type CreateProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (r *CreateProductRequest) Validate() []string {
	problems := []string{}
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if r.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if r.Quantity < 0 {
		problems = append(problems, "quantity must not be negative")
	}
	return problems
}

type ProductService struct {
	store ProductStore
}

func NewProductService(store ProductStore) *ProductService {
	return &ProductService{
		store: store,
	}
}

// Create adds a product unless one with the same name is already stocked.
// The name check is not atomic with the insert.
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product name: %w", err)
	}
	if existing.IsSome() {
		return nil, pkgerrors.NewProductAlreadyExistsError(name)
	}

	p, err := s.store.Create(ctx, name, req.Price, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"productID": p.ID,
		"name":      p.Name,
		"quantity":  p.Quantity,
	}).Info("PRODUCT:CREATED")
	return p, nil
}

func (s *ProductService) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	found, err := s.store.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p, ok := found.Get()
	if !ok {
		return nil, pkgerrors.NewProductsNotFoundError(name)
	}
	return &p, nil
}

// FindAllByID returns the products that exist among ids; unknown ids are left out.
func (s *ProductService) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	products, err := s.store.FindAllByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}
