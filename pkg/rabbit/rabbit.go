package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

type RabbitMQ struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	closeChan chan *amqp.Error
	isClosed  bool
	mu        sync.Mutex
	dsn       string

	log logger.Logger
}

// New creates a RabbitMQ client
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	conn, channel, closeChan, err := dial(ctx, dsn, log)
	if err != nil {
		return nil, err
	}

	log.Info(wrap.WithAction(ctx, "rabbitmq_connected"), "connected to rabbitMQ")

	r := &RabbitMQ{
		Conn:      conn,
		Channel:   channel,
		closeChan: closeChan,
		isClosed:  false,
		dsn:       dsn,
		log:       log,
	}

	go r.monitorConnection()

	return r, nil
}

func dial(ctx context.Context, dsn string, log logger.Logger) (*amqp.Connection, *amqp.Channel, chan *amqp.Error, error) {
	conn, err := amqp.DialConfig(dsn, amqp.Config{
		Heartbeat: 10 * time.Second,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	connCloseChan := make(chan *amqp.Error, 1)
	chCloseChan := make(chan *amqp.Error, 1)

	conn.NotifyClose(connCloseChan)
	channel.NotifyClose(chCloseChan)

	// Merge both close notifications into one channel for monitoring
	mergedCloseChan := make(chan *amqp.Error, 2)
	go func() {
		select {
		case err := <-connCloseChan:
			mergedCloseChan <- err
		case err := <-chCloseChan:
			mergedCloseChan <- err
		}
	}()

	return conn, channel, mergedCloseChan, nil
}

// monitorConnection waits for the close notification and marks the client closed
func (r *RabbitMQ) monitorConnection() {
	closeErr := <-r.closeChan

	r.mu.Lock()
	r.isClosed = true
	r.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "rabbitmq_connection_closed")
	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ connection closed with error", closeErr)
	} else {
		r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
	}
}

// IsConnectionClosed checks if the connection is closed
func (r *RabbitMQ) IsConnectionClosed() bool {
	if r.Conn == nil {
		return true
	}
	r.mu.Lock()
	closed := r.isClosed
	r.mu.Unlock()
	return closed || r.Conn.IsClosed() || r.Channel.IsClosed()
}

// EnsureConnection re-dials when the connection has been lost.
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, channel, closeChan, err := dial(ctx, r.dsn, r.log)
	if err != nil {
		return fmt.Errorf("failed to re-establish RabbitMQ connection: %w", err)
	}

	r.Conn = conn
	r.Channel = channel
	r.closeChan = closeChan
	r.isClosed = false

	go r.monitorConnection()

	r.log.Info(wrap.WithAction(ctx, "rabbitmq_reconnected"), "re-established rabbitMQ connection")
	return nil
}

// Close closes the rabbit connection
func (r *RabbitMQ) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosed {
		return nil
	}
	r.isClosed = true

	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			r.log.Warn(ctx, "failed to close rabbitMQ channel", "err", err.Error())
		}
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}
