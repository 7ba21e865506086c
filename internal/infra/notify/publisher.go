package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// Publisher hands committed notification rows to the delivery side.
type Publisher interface {
	Publish(ctx context.Context, notifications []models.Notification) error
}

// Message is the JSON document pushed onto the queue.
type Message struct {
	EventID        string    `json:"event_id"`
	NotificationID uint      `json:"notification_id"`
	ClientID       uint      `json:"client_id"`
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewMessage(n models.Notification) Message {
	return Message{
		EventID:        uuid.NewString(),
		NotificationID: n.ID,
		ClientID:       n.ClientID,
		Kind:           n.Kind,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
}

// ======================================================
// REDIS
// ======================================================

type RedisPublisher struct {
	client *redis.Client
	queue  string
}

func NewRedisPublisher(client *redis.Client, queue string) *RedisPublisher {
	return &RedisPublisher{client: client, queue: queue}
}

// Publish pushes every notification onto the list in one pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	values := make([]any, 0, len(notifications))
	for _, n := range notifications {
		b, err := json.Marshal(NewMessage(n))
		if err != nil {
			return fmt.Errorf("notify: encode notification %d: %w", n.ID, err)
		}
		values = append(values, b)
	}

	if err := p.client.RPush(ctx, p.queue, values...).Err(); err != nil {
		return fmt.Errorf("notify: push to %s: %w", p.queue, err)
	}
	return nil
}

// ======================================================
// LOG (sem redis)
// ======================================================

type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, notifications []models.Notification) error {
	for _, n := range notifications {
		log.Info().
			Uint("notification_id", n.ID).
			Uint("client_id", n.ClientID).
			Str("kind", n.Kind).
			Msg(n.Message)
	}
	return nil
}

// ======================================================
// ENTREGA
// ======================================================

type Marker interface {
	MarkNotificationsDispatched(ctx context.Context, ids []uint, at time.Time) error
}

// Deliver publishes rows already committed and stamps them dispatched.
// Failures are logged; undispatched rows stay in the table.
func Deliver(
	ctx context.Context,
	p Publisher,
	m Marker,
	notifications []models.Notification,
	now time.Time,
) {
	if p == nil || len(notifications) == 0 {
		return
	}

	if err := p.Publish(ctx, notifications); err != nil {
		log.Warn().Err(err).Int("count", len(notifications)).Msg("notification publish failed")
		return
	}

	ids := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}
	if err := m.MarkNotificationsDispatched(ctx, ids, now); err != nil {
		log.Warn().Err(err).Msg("notification dispatch stamp failed")
	}
}
