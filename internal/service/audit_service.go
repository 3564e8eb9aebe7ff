package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/events"
)

// AuditService writes security-relevant events to the structured log.
// This is where rejected-authentication subtypes end up: responses stay
// uniform while diagnostics keep the detail.
type AuditService struct {
	logger     *zap.Logger
	dispatcher events.Dispatcher
}

// NewAuditService constructs the service.
func NewAuditService(logger *zap.Logger, dispatcher events.Dispatcher) *AuditService {
	return &AuditService{logger: logger, dispatcher: dispatcher}
}

// RegisterHandlers subscribes the audit log to security events.
func (s *AuditService) RegisterHandlers() {
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventTaskCreated,
		events.EventTaskCompleted,
		events.EventTaskDeleted,
	} {
		s.dispatcher.Subscribe(eventType, s.record)
	}
}

func (s *AuditService) record(_ context.Context, event events.Event) error {
	s.logger.Info("audit event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
	return nil
}
