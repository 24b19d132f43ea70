package dto

import (
	"time"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/service"
	"github.com/spec-kit/inquiry-service/internal/validation"
)

// SubmitInquiryRequest is the public submission payload.
type SubmitInquiryRequest = validation.RawSubmission

// UploadRequest asks for write-scoped upload URLs.
type UploadRequest struct {
	Files []service.UploadRequestFile `json:"files"`
}

// NaverTokenRequest is the OAuth code exchange payload.
type NaverTokenRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// UpdateInquiryRequest carries the staff-editable fields.
type UpdateInquiryRequest struct {
	Confirmed  *bool   `json:"check"`
	Status     *string `json:"status"`
	Notes      *string `json:"notes"`
	AssignedTo *string `json:"assignedTo"`
}

// SendSMSRequest is the staff messaging payload.
type SendSMSRequest struct {
	Receiver string `json:"receiver"`
	Msg      string `json:"msg"`
	MsgType  string `json:"msg_type"`
	Title    string `json:"title"`
	TestMode string `json:"testmode_yn"`
}

// InquiryResponse is the staff-facing inquiry representation.
type InquiryResponse struct {
	ID          string                 `json:"id"`
	Number      int64                  `json:"number"`
	Confirmed   bool                   `json:"check"`
	Name        string                 `json:"name"`
	Phone       string                 `json:"phone"`
	Email       *string                `json:"email,omitempty"`
	Company     *string                `json:"company,omitempty"`
	Category    domain.InquiryCategory `json:"category"`
	Nationality string                 `json:"nationality"`
	Message     string                 `json:"message"`
	Attachments []domain.Attachment    `json:"attachments"`
	RiskScore   float64                `json:"recaptchaScore"`
	Status      string                 `json:"status"`
	Notes       *string                `json:"notes,omitempty"`
	AssignedTo  *string                `json:"assignedTo,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   *time.Time             `json:"updatedAt,omitempty"`
	UpdatedBy   *string                `json:"updatedBy,omitempty"`
}

// FromInquiry maps the domain aggregate to its response form.
func FromInquiry(inquiry *domain.Inquiry) InquiryResponse {
	attachments := inquiry.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return InquiryResponse{
		ID:          inquiry.ID,
		Number:      inquiry.Number,
		Confirmed:   inquiry.Confirmed,
		Name:        inquiry.Name,
		Phone:       inquiry.Phone,
		Email:       inquiry.Email,
		Company:     inquiry.Company,
		Category:    inquiry.Category,
		Nationality: inquiry.Nationality,
		Message:     inquiry.Message,
		Attachments: attachments,
		RiskScore:   inquiry.RiskScore,
		Status:      inquiry.Status,
		Notes:       inquiry.Notes,
		AssignedTo:  inquiry.AssignedTo,
		CreatedAt:   inquiry.CreatedAt,
		UpdatedAt:   inquiry.UpdatedAt,
		UpdatedBy:   inquiry.UpdatedBy,
	}
}
