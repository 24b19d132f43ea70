package events

import (
	"time"

	"github.com/spec-kit/inquiry-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventInquiryReceived               EventType = "inquiry_received"
	EventInquiryConfirmed              EventType = "inquiry_confirmed"
	EventInquiryConfirmationRolledBack EventType = "inquiry_confirmation_rolled_back"
	EventInquiryUpdated                EventType = "inquiry_updated"
	EventInquiryDeleted                EventType = "inquiry_deleted"
	EventSMSSent                       EventType = "sms_sent"
)

// Actor identifies who caused an event. Public submissions carry no staff
// identity, only the submitter address.
type Actor struct {
	StaffEmail  string          `json:"staff_email,omitempty"`
	Provider    domain.Provider `json:"provider,omitempty"`
	SubmitterIP string          `json:"submitter_ip,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	InquiryID string      `json:"inquiry_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// InquiryReceivedPayload payload.
type InquiryReceivedPayload struct {
	Number      int64                  `json:"number"`
	Category    domain.InquiryCategory `json:"category"`
	RiskScore   float64                `json:"risk_score"`
	Attachments int                    `json:"attachments"`
}

// ConfirmationPayload payload for saga outcomes.
type ConfirmationPayload struct {
	Number       int64  `json:"number"`
	Receiver     string `json:"receiver,omitempty"`
	Notified     bool   `json:"notified"`
	Compensated  bool   `json:"compensated"`
	FailureCause string `json:"failure_cause,omitempty"`
}

// InquiryDeletedPayload payload.
type InquiryDeletedPayload struct {
	Number             int64 `json:"number"`
	AttachmentsDeleted int   `json:"attachments_deleted"`
	AttachmentsFailed  int   `json:"attachments_failed"`
}

// SMSSentPayload payload.
type SMSSentPayload struct {
	Receiver     string `json:"receiver"`
	SuccessCount int    `json:"success_cnt"`
	ErrorCount   int    `json:"error_cnt"`
}
