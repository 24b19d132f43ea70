package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inquiry-service/internal/api/dto"
	"github.com/spec-kit/inquiry-service/internal/auth"
	"github.com/spec-kit/inquiry-service/internal/identity"
	"github.com/spec-kit/inquiry-service/internal/service"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// PublicHandler serves the anonymous visitor endpoints.
type PublicHandler struct {
	inquiries *service.InquiryService
	exchanger *identity.TokenExchanger
	policy    *auth.Policy
	uploadTTL time.Duration
}

// NewPublicHandler constructs handler.
func NewPublicHandler(inquiries *service.InquiryService, exchanger *identity.TokenExchanger, policy *auth.Policy, uploadTTL time.Duration) *PublicHandler {
	return &PublicHandler{
		inquiries: inquiries,
		exchanger: exchanger,
		policy:    policy,
		uploadTTL: uploadTTL,
	}
}

// SubmitInquiry POST /contact.
func (h *PublicHandler) SubmitInquiry(c *fiber.Ctx) error {
	var req dto.SubmitInquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	if _, err := h.inquiries.SubmitInquiry(c.UserContext(), clientIP(c), req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok", "message": "submitted"})
}

// RequestUploadURLs POST /upload-request.
func (h *PublicHandler) RequestUploadURLs(c *fiber.Ctx) error {
	var req dto.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	grants, err := h.inquiries.IssueUploadGrants(c.UserContext(), clientIP(c), req.Files, h.uploadTTL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"urls": grants})
}

// ExchangeNaverToken POST /auth/naver/token.
func (h *PublicHandler) ExchangeNaverToken(c *fiber.Ctx) error {
	var req dto.NaverTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	exchange, err := h.exchanger.Exchange(c.UserContext(), req.Code, req.State)
	if err != nil {
		return err
	}
	if err := h.policy.Authorize(&exchange.Identity); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"user": fiber.Map{
			"email":    exchange.Identity.Email,
			"name":     exchange.Identity.Name,
			"provider": exchange.Identity.Provider,
		},
		"accessToken":  exchange.AccessToken,
		"refreshToken": exchange.RefreshToken,
	})
}

// clientIP derives the rate-limit client identifier: first hop of the
// forwarded-for header when present, else the connection address.
func clientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.SplitN(forwarded, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
