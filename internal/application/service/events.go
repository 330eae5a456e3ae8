package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/pkg/logger"
)

type AccountEventType string

const (
	EventUserRegistered    AccountEventType = "user.registered"
	EventUserDeleted       AccountEventType = "user.deleted"
	EventAvatarUpdated     AccountEventType = "user.avatar_updated"
	EventProfileUpserted   AccountEventType = "profile.upserted"
	EventExperienceAdded   AccountEventType = "experience.added"
	EventExperienceRemoved AccountEventType = "experience.removed"
	EventEducationAdded    AccountEventType = "education.added"
	EventEducationRemoved  AccountEventType = "education.removed"
)

type AccountEvent struct {
	EventType  AccountEventType  `json:"event_type"`
	UserID     uuid.UUID         `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, evt AccountEvent) error
}

// PublishAsync sends evt in the background; failures are only logged.
func PublishAsync(pub EventPublisher, log logger.Logger, evt AccountEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	go func() {
		if err := pub.PublishAccountEvent(context.Background(), evt); err != nil {
			log.Error("Failed to publish account event", err,
				zap.String("event_type", string(evt.EventType)), zap.String("user_id", evt.UserID.String()))
		}
	}()
}
