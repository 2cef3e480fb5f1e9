package kafkautils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetainedTopic(t *testing.T) {
	topic := RetainedTopic("ledger-events", 4, 168*time.Hour)

	assert.Equal(t, "ledger-events", topic.Topic)
	assert.Equal(t, 4, topic.NumPartitions)
	assert.Equal(t, 1, topic.ReplicationFactor)
	assert.Equal(t, "delete", topic.Config["cleanup.policy"])
	assert.Equal(t, "604800000", topic.Config["retention.ms"])
}
