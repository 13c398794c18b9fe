package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

// AMQPQueue is a Queue backed by durable RabbitMQ queues, one per topic.
// Handlers receive the raw message body as []byte.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  logrus.FieldLogger

	// the channel is shared between publishers and the consumer's requeue path
	mu sync.Mutex

	MaxRetries int
}

// DialAMQP connects and opens the channel used for both publishing and consuming
func DialAMQP(url string, log logrus.FieldLogger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return &AMQPQueue{conn: conn, ch: ch, log: log, MaxRetries: 3}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}
	return nil
}

// Publish JSON-encodes payload (unless it already is []byte) onto the topic's queue
func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, ok := payload.([]byte)
	if !ok {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
	}
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retries int32) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",    // default exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{retryHeader: retries},
			Body:         body,
		},
	)
}

// Subscribe starts consuming the topic's queue in the background.
// A failed delivery is republished with an incremented retry header until
// MaxRetries is reached, then dropped.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	err := q.declare(topic)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(
			topic,
			"",
			false, // autoAck = false for reliability
			false,
			false,
			false,
			nil,
		)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			q.handle(topic, d, handler)
		}
		q.log.WithField("topic", topic).Info("Consumer channel closed")
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler func(payload any) error) {
	entry := q.log.WithField("topic", topic)

	err := handler(d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	if int(retries) < q.MaxRetries {
		entry.WithError(err).Warnf("Job failed (attempt %d/%d), requeueing", retries+1, q.MaxRetries)
		if perr := q.publish(topic, d.Body, retries+1); perr != nil {
			entry.WithError(perr).Error("Failed to requeue job")
			d.Nack(false, true)
			return
		}
	} else {
		entry.WithError(err).Errorf("Job permanently failed after %d attempts", q.MaxRetries)
	}
	d.Ack(false)
}

func retryCount(h amqp.Table) int32 {
	switch v := h[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
