package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StoryCompletedPayload - событие о завершении истории пользователем.
// Консьюмер (notification-пайплайн) живет в другом сервисе.
type StoryCompletedPayload struct {
	EventType   string    `json:"eventType"` // всегда "story_completed"
	UserID      string    `json:"userId"`
	StoryID     string    `json:"storyId"`
	StoryTitle  string    `json:"storyTitle"`
	CompletedAt time.Time `json:"completedAt"`
}

// StoryEventPublisher defines the interface for publishing story lifecycle events.
type StoryEventPublisher interface {
	PublishStoryCompleted(ctx context.Context, payload StoryCompletedPayload) error
}

// rabbitMQPublisher implements StoryEventPublisher for RabbitMQ.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQStoryEventPublisher creates a publisher with its own channel
// and declares the durable queue, so the service does not depend on the
// consumer starting first.
func NewRabbitMQStoryEventPublisher(conn *amqp.Connection, queueName string) (StoryEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("story event publisher: не удалось открыть канал: %w", err)
	}
	// Параметры очереди должны совпадать с параметрами у консьюмера.
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("story event publisher: не удалось объявить очередь %s: %w", queueName, err)
	}
	return &rabbitMQPublisher{channel: ch, queueName: queueName}, nil
}

// PublishStoryCompleted отправляет событие в очередь. Вызывающая сторона
// решает, фатальна ли ошибка; для завершения истории - нет.
func (p *rabbitMQPublisher) PublishStoryCompleted(ctx context.Context, payload StoryCompletedPayload) error {
	payload.EventType = "story_completed"
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal story completed payload: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish story completed event: %w", err)
	}
	return nil
}
