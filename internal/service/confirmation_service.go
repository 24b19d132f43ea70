package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/sms"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// ConfirmationService runs the confirm-and-notify saga: durably mark the
// inquiry confirmed, then notify the submitter by SMS. A notification
// failure rolls the flag back; a failed rollback leaves the record confirmed
// without a notification and is surfaced distinctly so the caller reloads
// instead of retrying (a retry could double-send).
type ConfirmationService struct {
	inquiries  repository.InquiryRepository
	sender     sms.Sender
	dispatcher events.Dispatcher
	logger     *zap.Logger

	locks sync.Map // inquiry id -> *sync.Mutex
}

// NewConfirmationService constructs the service.
func NewConfirmationService(inquiries repository.InquiryRepository, sender sms.Sender, dispatcher events.Dispatcher, logger *zap.Logger) *ConfirmationService {
	return &ConfirmationService{
		inquiries:  inquiries,
		sender:     sender,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Confirm executes the saga for one inquiry. Runs for the same inquiry are
// serialized; different inquiries proceed independently.
func (s *ConfirmationService) Confirm(ctx context.Context, id string, actor domain.Identity) (*domain.Inquiry, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, mapInquiryError(err)
	}
	if inquiry.Confirmed {
		return nil, apperrors.NewBadRequest("inquiry already confirmed", nil)
	}

	if err := s.inquiries.SetConfirmed(ctx, id, true, actor.Reference()); err != nil {
		return nil, mapInquiryError(err)
	}

	_, sendErr := s.sender.Send(ctx, sms.Message{
		Receiver: inquiry.Phone,
		Body:     confirmationBody(inquiry),
	})
	if sendErr == nil {
		inquiry.Confirmed = true
		s.publishEvent(ctx, events.Event{
			Type:      events.EventInquiryConfirmed,
			InquiryID: id,
			Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
			Payload: events.ConfirmationPayload{
				Number:   inquiry.Number,
				Receiver: inquiry.Phone,
				Notified: true,
			},
		})
		return inquiry, nil
	}

	s.logger.Error("confirmation notification failed, rolling back",
		zap.String("inquiry_id", id), zap.Error(sendErr))

	if rbErr := s.inquiries.SetConfirmed(ctx, id, false, actor.Reference()); rbErr != nil {
		s.logger.Error("confirmation rollback failed, record left confirmed without notification",
			zap.String("inquiry_id", id), zap.Error(rbErr))
		s.publishEvent(ctx, events.Event{
			Type:      events.EventInquiryConfirmationRolledBack,
			InquiryID: id,
			Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
			Payload: events.ConfirmationPayload{
				Number:       inquiry.Number,
				Notified:     false,
				Compensated:  false,
				FailureCause: rbErr.Error(),
			},
		})
		return nil, apperrors.NewDomainError("internal_error",
			"inquiry state inconsistent, please reload", http.StatusInternalServerError, nil)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventInquiryConfirmationRolledBack,
		InquiryID: id,
		Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
		Payload: events.ConfirmationPayload{
			Number:       inquiry.Number,
			Notified:     false,
			Compensated:  true,
			FailureCause: sendErr.Error(),
		},
	})
	return nil, apperrors.NewUpstreamUnavailable("notification failed, confirmation rolled back", sendErr)
}

func confirmationBody(inquiry *domain.Inquiry) string {
	return fmt.Sprintf("[APS] 문의 #%d 접수가 확인되었습니다. 담당자가 곧 연락드리겠습니다.", inquiry.Number)
}

func (s *ConfirmationService) lockFor(id string) *sync.Mutex {
	val, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return val.(*sync.Mutex)
}

func (s *ConfirmationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
