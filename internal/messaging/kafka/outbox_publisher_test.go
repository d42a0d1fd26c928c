package kafka

import (
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

func TestResolveTopic_RoutesByAggregate(t *testing.T) {
	publisher := &OutboxTopicPublisher{}

	cases := []struct {
		name  string
		event domain.OutboxMessage
		want  string
	}{
		{"order aggregate", domain.OutboxMessage{AggregateType: "order", EventType: "order.created"}, TopicOrderEvents},
		{"delivery aggregate", domain.OutboxMessage{AggregateType: "delivery", EventType: "delivery.assigned"}, TopicDeliveryEvents},
		{"delivery event prefix", domain.OutboxMessage{AggregateType: "order", EventType: "delivery.failed"}, TopicDeliveryEvents},
		{"product aggregate", domain.OutboxMessage{AggregateType: "product", EventType: "inventory.adjusted"}, TopicInventoryEvents},
		{"inventory event prefix", domain.OutboxMessage{EventType: "inventory.low_stock"}, TopicInventoryEvents},
		{"unknown defaults to orders", domain.OutboxMessage{AggregateType: "user", EventType: "user.signed_up"}, TopicOrderEvents},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := publisher.resolveTopic(tc.event); got != tc.want {
				t.Fatalf("expected topic %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveTopic_ExplicitTopicWins(t *testing.T) {
	publisher := &OutboxTopicPublisher{topic: "custom.events"}

	event := domain.OutboxMessage{AggregateType: "delivery", EventType: "delivery.failed"}
	if got := publisher.resolveTopic(event); got != "custom.events" {
		t.Fatalf("expected explicit topic to win, got %q", got)
	}
}

func TestPublish_WithoutProducerFails(t *testing.T) {
	publisher := &OutboxTopicPublisher{}

	err := publisher.Publish(domain.OutboxMessage{ID: "m1", EventType: "order.created"})
	if err == nil {
		t.Fatal("expected error when producer is not initialized")
	}
}
