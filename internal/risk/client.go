package risk

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

// Assessor classifies a bot-verification token as human or not.
type Assessor interface {
	Assess(ctx context.Context, token string) (float64, error)
}

// Client calls the external bot-risk scoring service. Tokens are single-use
// by provider contract, so a submission gets exactly one assessment call and
// no retries.
type Client struct {
	cfg        config.RiskConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the assessment client.
func NewClient(cfg config.RiskConfig, logger *zap.Logger) *Client {
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

type assessmentRequest struct {
	Event assessmentEvent `json:"event"`
}

type assessmentEvent struct {
	Token          string `json:"token"`
	ExpectedAction string `json:"expectedAction"`
	SiteKey        string `json:"siteKey"`
}

type assessmentResponse struct {
	TokenProperties struct {
		Valid    bool   `json:"valid"`
		Action   string `json:"action"`
		Hostname string `json:"hostname"`
	} `json:"tokenProperties"`
	RiskAnalysis struct {
		Score float64 `json:"score"`
	} `json:"riskAnalysis"`
}

// Assess verifies the token with the provider and returns the risk score when
// the verdict passes. Transport or parse failures surface as
// upstream_unavailable; a failing verdict surfaces as risk_rejected.
func (c *Client) Assess(ctx context.Context, token string) (float64, error) {
	if c.cfg.APIKey == "" {
		return 0, apperrors.NewServerConfigError("risk assessment API key not configured")
	}

	endpoint := fmt.Sprintf("%s/projects/%s/assessments?key=%s",
		c.cfg.AssessmentURL, c.cfg.ProjectID, c.cfg.APIKey)

	payload, err := json.Marshal(assessmentRequest{
		Event: assessmentEvent{
			Token:          token,
			ExpectedAction: c.cfg.ExpectedAction,
			SiteKey:        c.cfg.SiteKey,
		},
	})
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.NewUpstreamUnavailable("risk assessment unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, apperrors.NewUpstreamUnavailable(
			fmt.Sprintf("risk assessment returned status %d", resp.StatusCode), nil)
	}

	var assessment assessmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return 0, apperrors.NewUpstreamUnavailable("risk assessment response unreadable", err)
	}

	props := assessment.TokenProperties
	score := assessment.RiskAnalysis.Score

	if !props.Valid ||
		props.Action != c.cfg.ExpectedAction ||
		score < c.cfg.ScoreThreshold ||
		!c.hostnameAllowed(props.Hostname) {
		c.logger.Warn("risk assessment rejected submission",
			zap.Bool("valid", props.Valid),
			zap.String("action", props.Action),
			zap.String("hostname", props.Hostname),
			zap.Float64("score", score))
		return 0, apperrors.NewRiskRejected("verification failed")
	}

	return score, nil
}

func (c *Client) hostnameAllowed(hostname string) bool {
	if len(c.cfg.AllowedHostnames) == 0 {
		return true
	}
	for _, allowed := range c.cfg.AllowedHostnames {
		if hostname == allowed {
			return true
		}
	}
	return false
}
