package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/live-commerce/claim-service/internal/events"
)

type EventHandler func(event events.ClaimEvent) error

// Redelivery is bounded by an attempt counter carried in message headers and
// bumped on every republish. There is no dead-letter exchange; a message that
// exhausts its budget is dropped.
const (
	retryCountHeader = "x-retry-count"
	maxRetries       = 3
)

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string) *Consumer {
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
	}
}

func (c *Consumer) ConsumeEvents(routingKeys []string, handler EventHandler) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("queue declare error: %v", err)
	}

	for _, routingKey := range routingKeys {
		err = channel.QueueBind(
			queue.Name,               // queue name
			routingKey,               // routing key
			c.client.config.Exchange, // exchange
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return fmt.Errorf("queue bind error (%s): %v", routingKey, err)
		}
		log.Info().Str("queue", queue.Name).Str("routing_key", routingKey).
			Msg("queue bound")
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.serviceName, // consumer
		false,         // auto-ack, handled manually below
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("consume start error: %v", err)
	}

	log.Info().Str("queue", queue.Name).Msg("consuming events")

	go func() {
		for {
			select {
			case msg := <-messages:
				c.handleMessage(msg, handler)
			case <-c.client.Context().Done():
				log.Info().Str("consumer", c.serviceName).Msg("consumer stopped")
				return
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(msg amqp.Delivery, handler EventHandler) {
	var event events.ClaimEvent

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Error().Err(err).Msg("event deserialize error")
		msg.Nack(false, false)
		return
	}

	log.Debug().Str("event_type", string(event.EventType)).Str("service", event.Service).
		Msg("event received")

	if err := handler(event); err != nil {
		log.Error().Err(err).Str("event_type", string(event.EventType)).
			Msg("event process error")

		if c.shouldRetry(msg) {
			c.republishWithRetry(msg, event)
		} else {
			log.Warn().Str("event_type", string(event.EventType)).
				Msg("retry budget exhausted, dropping")
			msg.Nack(false, false)
		}
		return
	}

	msg.Ack(false)
}

func (c *Consumer) shouldRetry(msg amqp.Delivery) bool {
	return retryCount(msg) < maxRetries
}

func retryCount(msg amqp.Delivery) int64 {
	switch n := msg.Headers[retryCountHeader].(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

// retryHeaders copies the message headers with the attempt counter bumped.
func retryHeaders(msg amqp.Delivery) amqp.Table {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = retryCount(msg) + 1
	return headers
}

func (c *Consumer) republishWithRetry(msg amqp.Delivery, event events.ClaimEvent) {
	channel := c.client.Channel()

	time.Sleep(2 * time.Second)

	err := channel.Publish(
		msg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			DeliveryMode: msg.DeliveryMode,
			Headers:      retryHeaders(msg),
		},
	)

	if err != nil {
		log.Error().Err(err).Msg("retry publish error")
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
	log.Debug().Str("event_type", string(event.EventType)).Msg("re-published")
}
