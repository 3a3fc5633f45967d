package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/contracts"
)

var ErrPublishNacked = errors.New("broker did not confirm publish")

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

type RabbitCartEventsPublisher struct {
	mu      sync.Mutex
	ch      Channel
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRabbitCartEventsPublisher opens a channel in confirm mode and declares
// the events exchange on it.
func NewRabbitCartEventsPublisher(conn *amqp.Connection, logger zerolog.Logger) (*RabbitCartEventsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return newPublisher(ch, logger), nil
}

func newPublisher(ch Channel, logger zerolog.Logger) *RabbitCartEventsPublisher {
	return &RabbitCartEventsPublisher{
		ch:      ch,
		timeout: 3 * time.Second,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// PublishCartCheckedOut reserves the next sequence of the cart's partition
// from seq, then publishes and waits for the broker confirm.
func (p *RabbitCartEventsPublisher) PublishCartCheckedOut(ctx context.Context, c *cart.Cart, seq cart.Sequencer) error {
	partitionKey := contracts.PartitionKey(c)
	next, err := seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	md := MetadataFromContext(ctx)
	env := contracts.BuildCartCheckedOutEvent(c, contracts.EnvelopeOptions{
		Sequence:      next,
		CorrelationID: md.CorrelationID,
		CausationID:   md.CausationID,
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartCheckedOut envelope: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.EventID,
		CorrelationId: env.CorrelationID,
		Type:          env.EventName,
		Timestamp:     env.OccurredAt,
		Headers:       amqp.Table{},
		Body:          body,
	}
	if md.CorrelationID != "" {
		msg.Headers[HeaderCorrelationID] = md.CorrelationID
	}
	if md.CausationID != "" {
		msg.Headers[HeaderCausationID] = md.CausationID
	}

	if err := p.publish(ctx, CartCheckedOutRoutingKey, msg); err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", env.EventID).
		Str("partition_key", partitionKey).
		Int64("sequence", next).
		Msg("published CartCheckedOut")
	return nil
}

func (p *RabbitCartEventsPublisher) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(pubCtx, EventsExchange, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	// nil when the channel is not in confirm mode
	if dc == nil {
		return nil
	}
	acked, err := dc.WaitContext(pubCtx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", routingKey, err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

func (p *RabbitCartEventsPublisher) Close() error {
	return p.ch.Close()
}
