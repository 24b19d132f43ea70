package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inquiry-service/internal/api/dto"
	"github.com/spec-kit/inquiry-service/internal/auth"
	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/service"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// InquiriesHandler serves the authenticated staff endpoints.
type InquiriesHandler struct {
	inquiries     *service.InquiryService
	confirmations *service.ConfirmationService
	downloadTTL   time.Duration
}

// NewInquiriesHandler constructs handler.
func NewInquiriesHandler(inquiries *service.InquiryService, confirmations *service.ConfirmationService, downloadTTL time.Duration) *InquiriesHandler {
	return &InquiriesHandler{
		inquiries:     inquiries,
		confirmations: confirmations,
		downloadTTL:   downloadTTL,
	}
}

// List GET /inquiries.
func (h *InquiriesHandler) List(c *fiber.Ctx) error {
	filter := repository.InquiryFilter{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("check"); raw != "" {
		confirmed, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewBadRequest("invalid check filter", nil)
		}
		filter.Confirmed = &confirmed
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if raw := c.Query("category"); raw != "" {
		category := domain.InquiryCategory(raw)
		filter.Category = &category
	}

	list, err := h.inquiries.ListInquiries(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.InquiryResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.FromInquiry(&list[i]))
	}
	return c.JSON(fiber.Map{"status": "ok", "data": items, "count": len(items)})
}

// Get GET /inquiries/:id.
func (h *InquiriesHandler) Get(c *fiber.Ctx) error {
	inquiry, err := h.inquiries.GetInquiry(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "data": dto.FromInquiry(inquiry)})
}

// Update PATCH /inquiries/:id.
func (h *InquiriesHandler) Update(c *fiber.Ctx) error {
	ident, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff identity required")
	}
	var req dto.UpdateInquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	update := domain.InquiryUpdate{
		Confirmed:  req.Confirmed,
		Status:     req.Status,
		Notes:      req.Notes,
		AssignedTo: req.AssignedTo,
	}
	if err := h.inquiries.UpdateInquiry(c.UserContext(), c.Params("id"), update, *ident); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "message": "inquiry updated"})
}

// Delete DELETE /inquiries/:id.
func (h *InquiriesHandler) Delete(c *fiber.Ctx) error {
	ident, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff identity required")
	}
	results, err := h.inquiries.DeleteInquiry(c.UserContext(), c.Params("id"), *ident)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"message":     "inquiry and attachments deleted",
		"attachments": results,
	})
}

// Confirm POST /inquiries/:id/confirm.
func (h *InquiriesHandler) Confirm(c *fiber.Ctx) error {
	ident, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff identity required")
	}
	inquiry, err := h.confirmations.Confirm(c.UserContext(), c.Params("id"), *ident)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "data": dto.FromInquiry(inquiry)})
}

// AttachmentURLs GET /inquiries/:id/attachments/urls.
func (h *InquiriesHandler) AttachmentURLs(c *fiber.Ctx) error {
	urls, err := h.inquiries.AttachmentURLs(c.UserContext(), c.Params("id"), h.downloadTTL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "data": urls})
}
