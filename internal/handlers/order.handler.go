package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	"github.com/k-code-yt/go-order-placement/internal/order/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
)

type OrderCreator interface {
	Execute(ctx context.Context, req *application.CreateOrderRequest) (*domain.Order, error)
}

type OrderFinder interface {
	Execute(ctx context.Context, orderID string) (*domain.Order, error)
}

type orderHandler struct {
	creator OrderCreator
	finder  OrderFinder
	limiter ClientLimiter
}

func (h *orderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		if h.limiter != nil {
			r.With(rateLimit(h.limiter)).Post("/", h.handleCreate)
		} else {
			r.Post("/", h.handleCreate)
		}
		r.Get("/{id}", h.handleGet)
	})
}

func (h *orderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req := &application.CreateOrderRequest{}
	if err := decode(w, r, req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CustomerID == "" {
		writeError(w, r, pkgerrors.NewValidationError("customer_id is required"))
		return
	}

	o, err := h.creator.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *orderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	o, err := h.finder.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
