package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_PublishDeliversToSubscribers(t *testing.T) {
	q := NewInMemoryQueue()

	var got []string
	require.NoError(t, q.Subscribe("jobs", func(ctx context.Context, topic string, message []byte) error {
		got = append(got, topic+":"+string(message))
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "jobs", "k", []byte("a")))
	require.NoError(t, q.Publish(context.Background(), "other", "k", []byte("b")))

	assert.Equal(t, []string{"jobs:a"}, got)
	assert.Len(t, q.GetMessages("jobs"), 1)
	assert.Len(t, q.GetMessages("other"), 1)
}

func TestInMemoryQueue_HandlerError(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Subscribe("jobs", func(context.Context, string, []byte) error {
		return errors.New("failed")
	}))

	assert.Error(t, q.Publish(context.Background(), "jobs", "", []byte("a")))
}

func TestKafkaConfig(t *testing.T) {
	disabled := KafkaConfig{}
	assert.NoError(t, disabled.Validate())

	cfg := KafkaConfig{Enabled: true}
	assert.Error(t, cfg.Validate())

	cfg.Brokers = []string{"localhost:9092"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	consumer := cfg.JobsConsumer()
	assert.Equal(t, "chatbot", consumer.Group)
	assert.Equal(t, []string{DefaultJobsTopic}, consumer.Topics)
}

func TestKafkaProducer_NilIsNoop(t *testing.T) {
	var p *KafkaProducer
	assert.NoError(t, p.Publish(context.Background(), "jobs", "", []byte("x")))
	assert.NoError(t, p.Close())

	producer, err := NewKafkaProducer(KafkaConfig{})
	require.NoError(t, err)
	assert.Nil(t, producer)
}
