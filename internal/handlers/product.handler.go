package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/k-code-yt/go-order-placement/internal/product/application"
	"github.com/k-code-yt/go-order-placement/internal/product/domain"
	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
)

type ProductService interface {
	Create(ctx context.Context, req *application.CreateProductRequest) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error)
}

type productHandler struct {
	service ProductService
}

func (h *productHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
	})
}

func (h *productHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req := &application.CreateProductRequest{}
	if err := decode(w, r, req); err != nil {
		writeError(w, r, err)
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		writeError(w, r, pkgerrors.NewValidationError(problems...))
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleList serves GET /products?name=<name> and GET /products?ids=<id>,<id>.
func (h *productHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if name := q.Get("name"); name != "" {
		p, err := h.service.FindByName(r.Context(), name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	ids := []string{}
	for _, id := range strings.Split(q.Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, r, pkgerrors.NewValidationError("name or ids query parameter is required"))
		return
	}

	products, err := h.service.FindAllByID(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}
