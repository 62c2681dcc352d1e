package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/getsentry/sentry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// bufPool lets concurrent publishers reuse encoding buffers instead of
// allocating one per record.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

// Client publishes committed records to a topic exchange.
type Client interface {
	PublishRecord(ctx context.Context, entity, event string, id int64, record interface{}) error
	// Close will close the connection to rabbitmq
	Close() error
}

// RecordMessage is the body of every published message.
type RecordMessage struct {
	Entity      string      `json:"entity"`
	Event       string      `json:"event"`
	ID          int64       `json:"id"`
	Record      interface{} `json:"record"`
	PublishedAt time.Time   `json:"published_at"`
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger zerolog.Logger

	recordExchange string
}

type ClientOption = func(client *DefaultClient)

func WithRecordExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.recordExchange = exchange
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

// NewClient wraps an AMQP connection and declares the record exchange on it.
func NewClient(amqpClient AMQPClient, options ...ClientOption) (*DefaultClient, error) {
	client := &DefaultClient{
		amqpClient:     amqpClient,
		logger:         zerolog.New(os.Stdout).With().Timestamp().Logger(),
		recordExchange: common.DefaultRecordExchange,
	}

	for _, opt := range options {
		opt(client)
	}

	err := amqpClient.ExchangeDeclare(
		client.recordExchange,
		// topic lets consumers bind to entity.* or *.created
		"topic",
		// durable, not auto deleted: survives broker restarts without bindings
		true,
		false,
		// non internal exchanges accept direct publishing
		false,
		// wait for the broker to confirm the declaration
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Dial connects to uri and returns a ready publisher.
func Dial(uri string, logger zerolog.Logger, options ...ClientOption) (*DefaultClient, error) {
	amqpClient, err := DialAMQP(uri, logger)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(amqpClient, append([]ClientOption{WithLogger(logger)}, options...)...)
	if err != nil {
		amqpClient.Close()
		return nil, err
	}
	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

// RoutingKey is entity.event, e.g. invoice.created.
func RoutingKey(entity, event string) string {
	return fmt.Sprintf("%s.%s", entity, event)
}

func (client *DefaultClient) PublishRecord(ctx context.Context, entity, event string, id int64, record interface{}) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	err := json.NewEncoder(payload).Encode(RecordMessage{
		Entity:      entity,
		Event:       event,
		ID:          id,
		Record:      record,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	key := RoutingKey(entity, event)

	err = client.amqpClient.PublishWithContext(ctx,
		client.recordExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Body:         payload.Bytes(),
		},
	)
	if err != nil {
		captureErr(client.logger, err)
		return err
	}

	client.logger.Debug().Str("routing_key", key).Int64("id", id).Msg("published record to rabbitmq")

	return nil
}

func captureErr(logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("rabbitmq publish failed")
	sentry.CaptureException(err)
}
