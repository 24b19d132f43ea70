package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/observability"
	"github.com/spec-kit/inquiry-service/internal/ratelimit"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/risk"
	"github.com/spec-kit/inquiry-service/internal/storage"
	"github.com/spec-kit/inquiry-service/internal/validation"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// InquiryService coordinates the public intake pipeline and staff operations.
type InquiryService struct {
	inquiries  repository.InquiryRepository
	counter    repository.CounterRepository
	limiter    ratelimit.Limiter
	limit      int
	assessor   risk.Assessor
	objects    storage.ObjectStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// InquiryDependencies bundles collaborators for the inquiry service.
type InquiryDependencies struct {
	InquiryRepo repository.InquiryRepository
	CounterRepo repository.CounterRepository
	Limiter     ratelimit.Limiter
	MaxRequests int
	Assessor    risk.Assessor
	ObjectStore storage.ObjectStore
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewInquiryService constructs the service.
func NewInquiryService(deps InquiryDependencies) *InquiryService {
	limit := deps.MaxRequests
	if limit <= 0 {
		limit = 10
	}
	return &InquiryService{
		inquiries:  deps.InquiryRepo,
		counter:    deps.CounterRepo,
		limiter:    deps.Limiter,
		limit:      limit,
		assessor:   deps.Assessor,
		objects:    deps.ObjectStore,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// SubmitInquiry runs the full intake pipeline: rate limit, validate, assess
// risk, allocate the sequence number, persist. The counter transaction and
// the inquiry insert are two separate writes; a crash between them burns the
// allocated number, so numbers are unique and increasing but not contiguous.
func (s *InquiryService) SubmitInquiry(ctx context.Context, clientIP string, raw validation.RawSubmission) (*domain.Inquiry, error) {
	decision := s.limiter.Allow(clientIP, s.limit)
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		return nil, apperrors.NewRateLimited("too many requests")
	}

	submission, fieldErrs := validation.ValidateSubmission(raw)
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewBadRequest(
			strings.Join(fieldErrs, ", ")+" invalid",
			map[string]any{"fields": fieldErrs})
	}

	score, err := s.assessor.Assess(ctx, submission.Token)
	if err != nil {
		if s.metrics != nil {
			if de := apperrors.ToDomainError(err); de.Code == "risk_rejected" {
				s.metrics.RiskRejected.Inc()
			}
		}
		return nil, err
	}

	number, err := s.counter.NextSequence(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("sequence allocation failed", err)
	}

	inquiry := &domain.Inquiry{
		Number:      number,
		Confirmed:   false,
		Name:        submission.Name,
		Phone:       submission.Phone,
		Email:       submission.Email,
		Company:     submission.Company,
		Category:    submission.Category,
		Nationality: submission.Nationality,
		Message:     submission.Message,
		Attachments: submission.Attachments,
		SubmitterIP: clientIP,
		RiskScore:   score,
		Status:      domain.StatusNew,
	}

	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		s.logger.Error("inquiry insert failed after sequence allocation",
			zap.Int64("number", number), zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	if s.metrics != nil {
		s.metrics.InquiriesSubmitted.Inc()
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventInquiryReceived,
		InquiryID: inquiry.ID,
		Actor:     events.Actor{SubmitterIP: clientIP},
		Payload: events.InquiryReceivedPayload{
			Number:      inquiry.Number,
			Category:    inquiry.Category,
			RiskScore:   inquiry.RiskScore,
			Attachments: len(inquiry.Attachments),
		},
	})
	return inquiry, nil
}

// ListInquiries returns inquiries for staff, newest first.
func (s *InquiryService) ListInquiries(ctx context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	list, err := s.inquiries.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// GetInquiry fetches one inquiry by id.
func (s *InquiryService) GetInquiry(ctx context.Context, id string) (*domain.Inquiry, error) {
	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, mapInquiryError(err)
	}
	return inquiry, nil
}

// UpdateInquiry applies a staff field update and stamps the updating identity.
func (s *InquiryService) UpdateInquiry(ctx context.Context, id string, update domain.InquiryUpdate, actor domain.Identity) error {
	if update.Empty() {
		return apperrors.NewBadRequest("no valid fields to update", nil)
	}
	if err := s.inquiries.Update(ctx, id, update, actor.Reference()); err != nil {
		return mapInquiryError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventInquiryUpdated,
		InquiryID: id,
		Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
	})
	return nil
}

// AttachmentCleanupResult reports the outcome for one attachment blob.
type AttachmentCleanupResult struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// DeleteInquiry removes the record after a best-effort cleanup of its
// attachment blobs. Individual blob failures are reported per item and never
// abort the delete.
func (s *InquiryService) DeleteInquiry(ctx context.Context, id string, actor domain.Identity) ([]AttachmentCleanupResult, error) {
	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, mapInquiryError(err)
	}

	results := make([]AttachmentCleanupResult, 0, len(inquiry.Attachments))
	deleted, failed := 0, 0
	for _, att := range inquiry.Attachments {
		if att.Path == "" {
			results = append(results, AttachmentCleanupResult{
				Name:   att.Name,
				Status: "skipped",
				Reason: "no file path on attachment",
			})
			continue
		}
		if err := s.objects.Delete(ctx, att.Path); err != nil {
			s.logger.Error("attachment delete failed",
				zap.String("path", att.Path), zap.Error(err))
			failed++
			results = append(results, AttachmentCleanupResult{
				Name:   att.Name,
				Path:   att.Path,
				Status: "error",
				Reason: err.Error(),
			})
			continue
		}
		deleted++
		results = append(results, AttachmentCleanupResult{
			Name:   att.Name,
			Path:   att.Path,
			Status: "deleted",
		})
	}

	if err := s.inquiries.Delete(ctx, id); err != nil {
		return results, mapInquiryError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventInquiryDeleted,
		InquiryID: id,
		Actor:     events.Actor{StaffEmail: actor.Email, Provider: actor.Provider},
		Payload: events.InquiryDeletedPayload{
			Number:             inquiry.Number,
			AttachmentsDeleted: deleted,
			AttachmentsFailed:  failed,
		},
	})
	return results, nil
}

// AttachmentURL carries one attachment's signed download link, or the reason
// it could not be produced.
type AttachmentURL struct {
	Name        string `json:"name"`
	ContentType string `json:"type,omitempty"`
	Size        *int64 `json:"size,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// AttachmentURLs issues read-scoped signed URLs for every attachment of the
// inquiry, best-effort per item.
func (s *InquiryService) AttachmentURLs(ctx context.Context, id string, ttl time.Duration) ([]AttachmentURL, error) {
	inquiry, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, mapInquiryError(err)
	}

	results := make([]AttachmentURL, 0, len(inquiry.Attachments))
	for _, att := range inquiry.Attachments {
		item := AttachmentURL{Name: att.Name, ContentType: att.ContentType, Size: att.Size}
		if att.Path == "" {
			item.Error = "no file path"
			results = append(results, item)
			continue
		}
		exists, err := s.objects.Exists(ctx, att.Path)
		if err != nil {
			item.Error = err.Error()
			results = append(results, item)
			continue
		}
		if !exists {
			item.Error = "file not found in storage"
			results = append(results, item)
			continue
		}
		url, err := s.objects.SignedURL(ctx, att.Path, storage.MethodRead, ttl)
		if err != nil {
			item.Error = err.Error()
			results = append(results, item)
			continue
		}
		item.DownloadURL = url
		results = append(results, item)
	}
	return results, nil
}

// UploadGrant is one issued write-scoped upload URL.
type UploadGrant struct {
	Name      string `json:"name"`
	UploadURL string `json:"uploadUrl"`
	Filename  string `json:"filename"`
}

// UploadRequestFile names one file a visitor intends to upload.
type UploadRequestFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IssueUploadGrants returns write-scoped signed URLs for at most five files,
// under generated collision-free storage keys. Grants count against the same
// per-client window as submissions.
func (s *InquiryService) IssueUploadGrants(ctx context.Context, clientIP string, files []UploadRequestFile, ttl time.Duration) ([]UploadGrant, error) {
	decision := s.limiter.Allow(clientIP, s.limit)
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		return nil, apperrors.NewRateLimited("too many requests")
	}

	if len(files) == 0 {
		return nil, apperrors.NewBadRequest("no files requested", nil)
	}
	if len(files) > 5 {
		files = files[:5]
	}

	grants := make([]UploadGrant, 0, len(files))
	for _, file := range files {
		safeName := validation.SafeFileName(file.Name)
		key := "inquiries/" + strconv.FormatInt(time.Now().UnixMilli(), 10) +
			"_" + uuid.NewString()[:8] + "_" + safeName
		url, err := s.objects.SignedURL(ctx, key, storage.MethodWrite, ttl)
		if err != nil {
			return nil, err
		}
		grants = append(grants, UploadGrant{
			Name:      file.Name,
			UploadURL: url,
			Filename:  key,
		})
	}
	return grants, nil
}

func (s *InquiryService) publishEvent(ctx context.Context, event events.Event) {
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

func mapInquiryError(err error) error {
	de := apperrors.ToDomainError(err)
	if de.Code == "not_found" {
		return apperrors.NewNotFound("inquiry", nil)
	}
	return de
}
