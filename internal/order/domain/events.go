package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventType_OrderCreated EventType = "order_created"
)

type EventStatus string

const (
	EventStatus_Pending  EventStatus = "pending"
	EventStatus_Produced EventStatus = "produced"
)

const EventParentType_Order = "order"

// Event is an outbox row written in the same transaction as its parent aggregate.
type Event struct {
	EventId   string      `db:"event_id"`
	EventType EventType   `db:"event_type"`
	Timestamp time.Time   `db:"timestamp"`
	Status    EventStatus `db:"status"`

	ParentId       string          `db:"parent_id"`
	ParentType     string          `db:"parent_type"`
	ParentMetadata json.RawMessage `db:"parent_metadata"`
}

func NewEvent(eventType EventType, parentId string, parentType string, parentMetadata json.RawMessage) *Event {
	return &Event{
		EventId:        uuid.NewString(),
		EventType:      eventType,
		Timestamp:      time.Now().UTC(),
		Status:         EventStatus_Pending,
		ParentId:       parentId,
		ParentType:     parentType,
		ParentMetadata: parentMetadata,
	}
}

type OrderCreatedLine struct {
	ProductID string  `json:"product_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type OrderCreatedEvent struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	Total      float64            `json:"total"`
	Products   []OrderCreatedLine `json:"products"`
	CreatedAt  time.Time          `json:"created_at"`
}

func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	lines := make([]OrderCreatedLine, 0, len(o.Products))
	for _, p := range o.Products {
		lines = append(lines, OrderCreatedLine{
			ProductID: p.ProductID,
			Price:     p.Price,
			Quantity:  p.Quantity,
		})
	}
	return &OrderCreatedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total(),
		Products:   lines,
		CreatedAt:  o.CreatedAt,
	}
}

// OrderToEvent builds the outbox row announcing a placed order.
func OrderToEvent(o *Order) (*Event, error) {
	metadata, err := json.Marshal(NewOrderCreatedEvent(o))
	if err != nil {
		return nil, err
	}
	return NewEvent(EventType_OrderCreated, o.ID, EventParentType_Order, metadata), nil
}
