package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/events"
)

// NotificationService records domain events as a structured audit trail.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventInquiryReceived, n.logEvent)
	n.dispatcher.Subscribe(events.EventInquiryConfirmed, n.logEvent)
	n.dispatcher.Subscribe(events.EventInquiryConfirmationRolledBack, n.logEvent)
	n.dispatcher.Subscribe(events.EventInquiryUpdated, n.logEvent)
	n.dispatcher.Subscribe(events.EventInquiryDeleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventSMSSent, n.logEvent)
}

func (n *NotificationService) logEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("inquiry_id", event.InquiryID),
		zap.String("staff_email", event.Actor.StaffEmail),
		zap.Any("payload", event.Payload))
	return nil
}
