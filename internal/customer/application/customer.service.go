package application

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/k-code-yt/go-order-placement/internal/customer/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	pkgtypes "github.com/k-code-yt/go-order-placement/pkg/types"
	"github.com/sirupsen/logrus"
)

type CustomerStore interface {
	Insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	FindByID(ctx context.Context, id string) (pkgtypes.Option[domain.Customer], error)
}

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate returns a list of field problems, empty when the request is usable.
func (r *CreateCustomerRequest) Validate() []string {
	problems := []string{}
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		problems = append(problems, "email is invalid")
	}
	return problems
}

type CustomerService struct {
	store CustomerStore
}

func NewCustomerService(store CustomerStore) *CustomerService {
	return &CustomerService{
		store: store,
	}
}

func (s *CustomerService) Create(ctx context.Context, req *CreateCustomerRequest) (*domain.Customer, error) {
	c, err := s.store.Insert(ctx, domain.NewCustomer(strings.TrimSpace(req.Name), req.Email))
	if err != nil {
		if pkgerrors.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"customerID": c.ID,
	}).Info("CUSTOMER:CREATED")
	return c, nil
}

func (s *CustomerService) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	c, ok := found.Get()
	if !ok {
		return nil, pkgerrors.NewInvalidCustomerError(id)
	}
	return &c, nil
}
