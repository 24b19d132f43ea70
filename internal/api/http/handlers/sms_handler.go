package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inquiry-service/internal/api/dto"
	"github.com/spec-kit/inquiry-service/internal/auth"
	"github.com/spec-kit/inquiry-service/internal/service"
	"github.com/spec-kit/inquiry-service/internal/sms"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// SMSHandler serves ad-hoc staff messaging.
type SMSHandler struct {
	smsService *service.SMSService
}

// NewSMSHandler constructs handler.
func NewSMSHandler(smsService *service.SMSService) *SMSHandler {
	return &SMSHandler{smsService: smsService}
}

// Send POST /sms/send.
func (h *SMSHandler) Send(c *fiber.Ctx) error {
	ident, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff identity required")
	}
	var req dto.SendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Receiver == "" || req.Msg == "" {
		return apperrors.NewBadRequest("missing required fields: receiver, msg", nil)
	}

	result, err := h.smsService.Send(c.UserContext(), sms.Message{
		Receiver: req.Receiver,
		Body:     req.Msg,
		Type:     req.MsgType,
		Title:    req.Title,
		TestMode: strings.EqualFold(req.TestMode, "Y"),
	}, *ident)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"data": fiber.Map{
			"msg_id":      result.MessageID,
			"success_cnt": result.SuccessCount,
			"error_cnt":   result.ErrorCount,
			"msg_type":    result.Type,
		},
	})
}
