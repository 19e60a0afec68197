package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     float64   `db:"price" json:"price"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func NewProduct(name string, price float64, quantity int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProductQuantity pairs a product id with a requested amount.
type ProductQuantity struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// IDs returns the distinct ids in request order.
func IDs(items []ProductQuantity) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}
	return ids
}

// Decrement returns the stored quantity minus the requested one. There is no floor at zero.
func Decrement(p Product, requested map[string]int) Product {
	p.Quantity -= requested[p.ID]
	p.UpdatedAt = time.Now().UTC()
	return p
}

// RequestedByID indexes quantities by product id, summing duplicates.
func RequestedByID(items []ProductQuantity) map[string]int {
	res := make(map[string]int, len(items))
	for _, item := range items {
		res[item.ID] += item.Quantity
	}
	return res
}
