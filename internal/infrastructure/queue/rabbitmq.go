// Package queue delivers legacy-format messages to the switch through RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	serviceName = "queue"
	dialTimeout = 10 * time.Second
)

// channel is the part of *amqp091.Channel the producer uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Producer publishes each message on the default exchange with the queue name as routing key,
// so it lands on exactly that queue. Queues are declared durable on first use.
type Producer struct {
	mu             sync.Mutex
	conn           *amqp091.Connection
	channel        channel
	openChannel    func() (channel, error)
	declared       map[string]bool
	publishTimeout time.Duration
	logger         zerolog.Logger
}

var _ gateways.QueueService = (*Producer)(nil)

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewProducer dials RabbitMQ and opens a channel.
func NewProducer(amqpURL string, publishTimeout time.Duration) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, err
	}

	p := newProducer(func() (channel, error) { return conn.Channel() }, publishTimeout)
	p.conn = conn

	if p.channel, err = p.openChannel(); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func newProducer(openChannel func() (channel, error), publishTimeout time.Duration) *Producer {
	return &Producer{
		openChannel:    openChannel,
		declared:       make(map[string]bool),
		publishTimeout: publishTimeout,
		logger:         log.Component("queue_producer"),
	}
}

// AddToQueue publishes message as JSON. A failed publish is retried once on a fresh channel.
func (p *Producer) AddToQueue(ctx context.Context, queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", queueName, err)
	}

	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.publish(ctx, queueName, body); err == nil {
		return nil
	}

	p.logger.Warn().Err(err).Str("queue", queueName).Msg("publish failed; reopening channel")
	if reopenErr := p.reopen(); reopenErr != nil {
		return apperrors.NewUpstreamError(serviceName, 0, fmt.Errorf("%v; reopen channel: %w", err, reopenErr))
	}

	if err = p.publish(ctx, queueName, body); err != nil {
		return apperrors.NewUpstreamError(serviceName, 0, err)
	}
	return nil
}

func (p *Producer) publish(ctx context.Context, queueName string, body []byte) error {
	if p.channel == nil {
		return errors.New("channel is closed")
	}

	if !p.declared[queueName] {
		if _, err := p.channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queueName, err)
		}
		p.declared[queueName] = true
	}

	return p.channel.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// reopen replaces the channel. Declarations are repeated on the new channel.
func (p *Producer) reopen() error {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}

	ch, err := p.openChannel()
	if err != nil {
		return err
	}
	p.channel = ch
	p.declared = make(map[string]bool)
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
