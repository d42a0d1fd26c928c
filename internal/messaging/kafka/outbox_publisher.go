package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в Kafka.
// Topic выбирается по типу агрегата: заказы, доставки и склад
// уходят в разные topic'и; явный topic в конструкторе перекрывает выбор.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
// Пустой topic включает маршрутизацию по типу агрегата.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
		PublishedAt   time.Time       `json:"published_at"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}

	return p.producer.PublishEvent(p.resolveTopic(event), key, event.EventType, envelope)
}

func (p *OutboxTopicPublisher) resolveTopic(event domain.OutboxMessage) string {
	if p.topic != "" {
		return p.topic
	}
	return TopicFor(event.AggregateType, event.EventType)
}

// TopicFor возвращает topic для события по типу агрегата и события.
// Заказы, доставки и склад расходятся по своим topic'ам.
func TopicFor(aggregateType, eventType string) string {
	switch {
	case aggregateType == "delivery" || strings.HasPrefix(eventType, "delivery."):
		return TopicDeliveryEvents
	case aggregateType == "product" || strings.HasPrefix(eventType, "inventory."):
		return TopicInventoryEvents
	default:
		return TopicOrderEvents
	}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
