package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type recordingPublisher struct {
	got []models.Notification
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, ns []models.Notification) error {
	p.got = append(p.got, ns...)
	return p.err
}

type recordingMarker struct {
	ids []uint
	at  time.Time
}

func (m *recordingMarker) MarkNotificationsDispatched(_ context.Context, ids []uint, at time.Time) error {
	m.ids, m.at = ids, at
	return nil
}

func TestDeliverStampsPublishedRows(t *testing.T) {
	now := time.Now()
	p := &recordingPublisher{}
	m := &recordingMarker{}

	Deliver(context.Background(), p, m, []models.Notification{{ID: 3}, {ID: 4}}, now)

	assert.Len(t, p.got, 2)
	assert.Equal(t, []uint{3, 4}, m.ids)
	assert.Equal(t, now, m.at)
}

func TestDeliverLeavesRowsWhenPublishFails(t *testing.T) {
	p := &recordingPublisher{err: errors.New("redis down")}
	m := &recordingMarker{}

	Deliver(context.Background(), p, m, []models.Notification{{ID: 3}}, time.Now())
	assert.Nil(t, m.ids)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(models.Notification{ID: 9, ClientID: 2, Kind: "referral_succeeded", Message: "ok"})

	_, err := uuid.Parse(msg.EventID)
	assert.NoError(t, err)
	assert.Equal(t, uint(9), msg.NotificationID)
	assert.Equal(t, "referral_succeeded", msg.Kind)
}
