package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/k-code-yt/go-order-placement/internal/customer/application"
	"github.com/k-code-yt/go-order-placement/internal/customer/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
)

type CustomerService interface {
	Create(ctx context.Context, req *application.CreateCustomerRequest) (*domain.Customer, error)
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
}

type customerHandler struct {
	service CustomerService
}

func (h *customerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
	})
}

func (h *customerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req := &application.CreateCustomerRequest{}
	if err := decode(w, r, req); err != nil {
		writeError(w, r, err)
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		writeError(w, r, pkgerrors.NewValidationError(problems...))
		return
	}

	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *customerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
