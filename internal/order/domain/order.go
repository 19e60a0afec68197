package domain

import (
	"time"

	"github.com/google/uuid"
	customer "github.com/k-code-yt/go-order-placement/internal/customer/domain"
)

type Order struct {
	ID         string             `db:"id" json:"id"`
	CustomerID string             `db:"customer_id" json:"customer_id"`
	Customer   *customer.Customer `db:"-" json:"customer,omitempty"`
	Products   []OrderProduct     `db:"-" json:"order_products"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// OrderProduct is a line item. Price is copied from the product when the order is placed.
type OrderProduct struct {
	ID        string  `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Price     float64 `db:"price" json:"price"`
	Quantity  int     `db:"quantity" json:"quantity"`
}

func NewOrder(c *customer.Customer, products []OrderProduct) *Order {
	o := &Order{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		Customer:   c,
		CreatedAt:  time.Now().UTC(),
	}
	o.Products = make([]OrderProduct, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.OrderID = o.ID
		o.Products = append(o.Products, p)
	}
	return o
}

func (o *Order) Total() float64 {
	var total float64
	for _, p := range o.Products {
		total += p.Price * float64(p.Quantity)
	}
	return total
}
