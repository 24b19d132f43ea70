package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/config"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// Sender delivers notification messages through the messaging gateway.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// Message is one outbound SMS request.
type Message struct {
	Receiver string
	Body     string
	Type     string
	Title    string
	TestMode bool
}

// Result carries the gateway's delivery counters.
type Result struct {
	MessageID    string
	SuccessCount int
	ErrorCount   int
	Type         string
}

// Client forwards messages to the relay in front of the SMS gateway. The
// relay holds the fixed network address the gateway whitelists.
type Client struct {
	cfg        config.SMSConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the gateway client.
func NewClient(cfg config.SMSConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type relayPayload struct {
	Key      string `json:"key"`
	UserID   string `json:"user_id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Msg      string `json:"msg"`
	MsgType  string `json:"msg_type,omitempty"`
	Title    string `json:"title,omitempty"`
	TestMode string `json:"testmode_yn,omitempty"`
}

type relayResponse struct {
	ResultCode   int    `json:"result_code"`
	Message      string `json:"message"`
	MsgID        string `json:"msg_id"`
	SuccessCount int    `json:"success_cnt"`
	ErrorCount   int    `json:"error_cnt"`
	MsgType      string `json:"msg_type"`
}

// Send posts the message to the relay and interprets the gateway result code.
func (c *Client) Send(ctx context.Context, msg Message) (*Result, error) {
	if c.cfg.RelayURL == "" || c.cfg.APIKey == "" || c.cfg.UserID == "" || c.cfg.Sender == "" {
		return nil, apperrors.NewServerConfigError("sms gateway not configured")
	}
	if msg.Receiver == "" || msg.Body == "" {
		return nil, apperrors.NewBadRequest("missing required fields: receiver, msg", nil)
	}

	payload := relayPayload{
		Key:      c.cfg.APIKey,
		UserID:   c.cfg.UserID,
		Sender:   c.cfg.Sender,
		Receiver: msg.Receiver,
		Msg:      msg.Body,
		MsgType:  msg.Type,
		Title:    msg.Title,
	}
	if msg.TestMode {
		payload.TestMode = "Y"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RelayURL+"/sms/send", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("sms gateway unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamUnavailable(
			fmt.Sprintf("sms relay returned status %d", resp.StatusCode), nil)
	}

	var result relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("sms relay response unreadable", err)
	}

	if result.ResultCode < 0 {
		c.logger.Error("sms gateway rejected message",
			zap.Int("result_code", result.ResultCode),
			zap.String("message", result.Message))
		return nil, apperrors.NewUpstreamUnavailable("sms send failed", nil)
	}

	c.logger.Info("sms sent",
		zap.String("receiver", msg.Receiver),
		zap.Int("success_cnt", result.SuccessCount),
		zap.Int("error_cnt", result.ErrorCount))

	return &Result{
		MessageID:    result.MsgID,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
		Type:         result.MsgType,
	}, nil
}
