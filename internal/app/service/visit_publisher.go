package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/LinkDesk/internal/app/model"
)

// VisitPublisher publishes visit events to NATS JetStream.
type VisitPublisher struct {
	js nats.JetStreamContext
}

// NewVisitPublisher creates a new visit event publisher.
func NewVisitPublisher(js nats.JetStreamContext) *VisitPublisher {
	return &VisitPublisher{js: js}
}

// Publish publishes a visit of urlID to the stream.
func (p *VisitPublisher) Publish(urlID string, visitor *model.VisitorInfo) error {
	event := model.VisitEvent{
		ID:      uuid.New().String(),
		URLID:   urlID,
		Visitor: visitor,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.VisitStreamSubject, data, nats.MsgId(event.ID))
	return err
}
