// Package events publishes ride lifecycle messages to RabbitMQ for anything
// downstream (analytics, notifications). The broker is optional: without one
// configured the publisher is nil and every call is a no-op.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/metrics"
	"github.com/gocar-app/gocar/pkg/rabbit"
)

const RideExchange = "gocar.rides"

const (
	KeyRideRequested = "ride.requested"
	KeyRideMatched   = "ride.matched"
	KeyRideFinished  = "ride.finished"
)

// RideEvent is the message body for every routing key.
type RideEvent struct {
	RideID   string  `json:"rideId"`
	UserID   string  `json:"userId,omitempty"`
	DriverID string  `json:"driverId,omitempty"`
	Fare     float64 `json:"fare,omitempty"`
	Status   string  `json:"status,omitempty"`
	At       string  `json:"at"`
}

type Publisher struct {
	client *rabbit.RabbitMQ
	log    logger.Logger
}

func NewPublisher(client *rabbit.RabbitMQ, log logger.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// Setup declares the exchange. Called once at startup.
func (p *Publisher) Setup(ctx context.Context) error {
	if p == nil || p.client == nil {
		return nil
	}
	if err := p.client.EnsureConnection(ctx); err != nil {
		return err
	}
	return p.client.Channel.ExchangeDeclare(
		RideExchange, "topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

func (p *Publisher) RideRequested(ctx context.Context, ev RideEvent) {
	p.publish(ctx, KeyRideRequested, ev)
}

func (p *Publisher) RideMatched(ctx context.Context, ev RideEvent) {
	p.publish(ctx, KeyRideMatched, ev)
}

func (p *Publisher) RideFinished(ctx context.Context, ev RideEvent) {
	p.publish(ctx, KeyRideFinished, ev)
}

// publish is best-effort: a broker outage must never fail the ride flow.
func (p *Publisher) publish(ctx context.Context, key string, ev RideEvent) {
	if p == nil || p.client == nil {
		return
	}
	ctx = wrap.WithAction(wrap.WithRideID(ctx, ev.RideID), "publish_ride_event")

	if ev.At == "" {
		ev.At = time.Now().UTC().Format(time.RFC3339)
	}

	if err := p.send(ctx, key, ev); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(key, "error").Inc()
		p.log.Warn(ctx, "publishing ride event failed", "key", key, "error", err.Error())
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(key, "ok").Inc()
}

func (p *Publisher) send(ctx context.Context, key string, ev RideEvent) error {
	if err := p.client.EnsureConnection(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.client.Channel.PublishWithContext(
		ctx,
		RideExchange,
		key,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}
