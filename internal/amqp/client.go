// Package amqp carries store change notices between writers and
// dashboards over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "github.com/theirongolddev/kantong/internal/log"
)

// Client publishes and consumes change notices on one direct exchange.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	prefix   string
	logger   *slog.Logger
}

// Dial connects to url and declares the exchange.
func Dial(url, exchange, prefix string, logger *slog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if logger == nil {
		logger = applog.Discard()
	}
	c := &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		prefix:   prefix,
		logger:   applog.Component(logger, applog.ComponentAMQP),
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return c, nil
}

// PublishChange announces that ch.Stream changed for ch.User.
func (c *Client) PublishChange(ctx context.Context, ch Change) error {
	body, err := ch.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := RoutingKey(c.prefix, ch.User)
	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   ch.At,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish change: %w", err)
	}

	c.logger.Debug("published change",
		applog.FieldOperation, applog.OpPublish,
		applog.FieldUser, ch.User,
		applog.FieldStream, ch.Stream,
	)
	return nil
}

// ConsumeChanges binds a private queue to user's routing key and calls
// handler for each notice until ctx is canceled. Every dashboard gets its
// own queue, so all of them see every notice.
func (c *Client) ConsumeChanges(ctx context.Context, user string, handler func(Change) error) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, RoutingKey(c.prefix, user), c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming changes", applog.FieldUser, user, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("change channel closed")
			}

			change, err := ChangeFromJSON(delivery.Body)
			if err != nil {
				c.logger.Warn("dropping malformed change", applog.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(change); err != nil {
				c.logger.Warn("change handler failed",
					applog.FieldOperation, applog.OpConsume,
					applog.FieldStream, change.Stream,
					applog.FieldError, err,
				)
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
