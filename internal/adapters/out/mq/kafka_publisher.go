package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/out"
)

// TopicStatusChanged 状态变更事件的 Kafka Topic
const TopicStatusChanged = "faculty.status.changed"

// KafkaEventPublisher Kafka事件发布器
type KafkaEventPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaEventPublisher 创建Kafka事件发布器
func NewKafkaEventPublisher(brokers []string) (out.EventPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	// 同一教师的事件发到同一分区，保住单教师的提交顺序
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{producer: producer}, nil
}

func (p *KafkaEventPublisher) PublishStatusChanged(ctx context.Context, event *entity.StatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicStatusChanged,
		Key:   sarama.StringEncoder(event.FacultyID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("status_changed")},
			{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}

	_, _, err = p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish status event failed: %w", err)
	}

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
