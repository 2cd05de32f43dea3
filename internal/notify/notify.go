package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mwalcott/stagecrew/internal/lifecycle"
	"github.com/mwalcott/stagecrew/internal/models"
)

// AuditLog records every successful lifecycle transition. Email, Slack, and
// PDF dispatchers hang off the same Notifier interface and stay out of this
// core.
type AuditLog struct {
	log *zap.Logger
}

func NewAuditLog(log *zap.Logger) *AuditLog {
	return &AuditLog{log: log}
}

func (a *AuditLog) EventTransitioned(ctx context.Context, event *models.Event, action lifecycle.Action, actor *models.User) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("event_title", event.Title),
		zap.String("action", string(action)),
	}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID.String()))
	}
	a.log.Info("event transitioned", fields...)
	return nil
}
