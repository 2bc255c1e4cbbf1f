package messaging

import (
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestShouldRetry_BoundedByAttemptHeader(t *testing.T) {
	c := NewConsumer(nil, "claim-service-queue", "claim-service")

	assert.True(t, c.shouldRetry(amqp.Delivery{}), "first failure is retried")
	assert.True(t, c.shouldRetry(amqp.Delivery{Headers: amqp.Table{retryCountHeader: int64(2)}}))
	assert.False(t, c.shouldRetry(amqp.Delivery{Headers: amqp.Table{retryCountHeader: int64(3)}}))
	assert.False(t, c.shouldRetry(amqp.Delivery{Headers: amqp.Table{retryCountHeader: int32(7)}}))
}

func TestRetryHeaders_IncrementsAndPreserves(t *testing.T) {
	msg := amqp.Delivery{Headers: amqp.Table{"session_id": "s-1"}}

	headers := retryHeaders(msg)
	assert.Equal(t, int64(1), headers[retryCountHeader])
	assert.Equal(t, "s-1", headers["session_id"])

	// A republished message keeps counting up until shouldRetry refuses it.
	msg.Headers = headers
	assert.Equal(t, int64(2), retryHeaders(msg)[retryCountHeader])
}
