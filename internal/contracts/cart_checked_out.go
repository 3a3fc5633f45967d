package contracts

import (
	"strconv"
	"time"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CartCheckedOutEventName           = "CartCheckedOut"
	CartCheckedOutEventVersion        = 1
	CartCheckedOutEnvelopedSchemaPath = "contracts/events/cart/CartCheckedOut.v1.enveloped.schema.json"
	ShoppingCartProducer              = "shopping-cart"
)

type EventEnvelope struct {
	EventName     string                `json:"eventName"`
	EventVersion  int                   `json:"eventVersion"`
	EventID       string                `json:"eventId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	CausationID   string                `json:"causationId,omitempty"`
	Producer      string                `json:"producer"`
	PartitionKey  string                `json:"partitionKey"`
	Sequence      int64                 `json:"sequence"`
	OccurredAt    time.Time             `json:"occurredAt"`
	Schema        string                `json:"schema"`
	Payload       CartCheckedOutPayload `json:"payload"`
}

type CartCheckedOutPayload struct {
	CartID      int64                `json:"cartId"`
	UserID      int64                `json:"userId"`
	Items       []CartCheckedOutItem `json:"items"`
	TotalAmount decimal.Decimal      `json:"totalAmount"`
	Timestamp   time.Time            `json:"timestamp"`
}

type CartCheckedOutItem struct {
	ProductID int64           `json:"productId"`
	OfferID   int64           `json:"offerId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type EnvelopeOptions struct {
	Sequence      int64
	Producer      string
	SchemaPath    string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// PartitionKey groups the events of one cart.
func PartitionKey(c *cart.Cart) string {
	return "cart-" + strconv.FormatInt(c.ID, 10)
}

func BuildCartCheckedOutEvent(c *cart.Cart, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	schemaPath := opts.SchemaPath
	if schemaPath == "" {
		schemaPath = CartCheckedOutEnvelopedSchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = ShoppingCartProducer
	}

	payload := CartCheckedOutPayload{
		CartID:      c.ID,
		UserID:      c.UserID,
		Items:       make([]CartCheckedOutItem, 0, len(c.Lines)),
		TotalAmount: c.TotalPrice(),
		Timestamp:   occurredAt,
	}

	for i := range c.Lines {
		l := &c.Lines[i]
		payload.Items = append(payload.Items, CartCheckedOutItem{
			ProductID: l.ProductID,
			OfferID:   l.OfferID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice(),
			LineTotal: l.Total(),
		})
	}

	return EventEnvelope{
		EventName:     CartCheckedOutEventName,
		EventVersion:  CartCheckedOutEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  PartitionKey(c),
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       payload,
	}
}
