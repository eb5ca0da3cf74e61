package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topics for product lifecycle events.
const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
)

const aggregateTypeProduct = "product"

// Envelope is the wire format for all published events.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEnvelope creates an envelope with a generated ID and current timestamp.
func NewEnvelope(eventType, aggregateID, source string, data any) (*Envelope, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateTypeProduct,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          dataBytes,
	}, nil
}

// WithCorrelationID sets the correlation ID on the envelope.
func (e *Envelope) WithCorrelationID(id string) *Envelope {
	e.CorrelationID = id
	return e
}

// Marshal serializes the envelope to JSON bytes.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ProductPayload is the data carried by product lifecycle events.
type ProductPayload struct {
	ProductID     int64     `json:"product_id"`
	Name          string    `json:"name"`
	ProductNumber string    `json:"product_number"`
	ListPrice     float64   `json:"list_price"`
	ModifiedDate  time.Time `json:"modified_date"`
}

// DeletedPayload is the data carried by product.deleted events.
type DeletedPayload struct {
	ProductID int64 `json:"product_id"`
}
