package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/observability"
	"github.com/spec-kit/inquiry-service/internal/sms"
)

// SMSService exposes ad-hoc staff messaging through the gateway.
type SMSService struct {
	sender     sms.Sender
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewSMSService constructs the service.
func NewSMSService(sender sms.Sender, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *SMSService {
	return &SMSService{sender: sender, dispatcher: dispatcher, metrics: metrics, logger: logger}
}

// Send delivers one message on behalf of a staff member.
func (s *SMSService) Send(ctx context.Context, msg sms.Message, actor domain.Identity) (*sms.Result, error) {
	result, err := s.sender.Send(ctx, msg)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SMSSent.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SMSSent.WithLabelValues("ok").Inc()
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSMSSent,
			Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
			Timestamp: time.Now(),
			Payload: events.SMSSentPayload{
				Receiver:     msg.Receiver,
				SuccessCount: result.SuccessCount,
				ErrorCount:   result.ErrorCount,
			},
		})
	}
	return result, nil
}
