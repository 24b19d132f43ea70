package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/config"
	"github.com/spec-kit/inquiry-service/internal/domain"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// GoogleVerifier introspects access tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGoogleVerifier builds the verifier.
func NewGoogleVerifier(cfg config.AuthConfig, logger *zap.Logger) *GoogleVerifier {
	return &GoogleVerifier{
		endpoint:   cfg.GoogleTokenInfoURL,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
		logger:     logger,
	}
}

// tokeninfo reports email_verified as either the string "true" or a JSON
// boolean depending on the token flavor; accept both spellings.
type verifiedFlag bool

func (f *verifiedFlag) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*f = verifiedFlag(asBool)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = verifiedFlag(asString == "true")
		return nil
	}
	*f = false
	return nil
}

type googleTokenInfo struct {
	Email         string       `json:"email"`
	EmailVerified verifiedFlag `json:"email_verified"`
	Name          string       `json:"name"`
	Sub           string       `json:"sub"`
}

// Verify introspects the token once and requires a present, verified email.
func (v *GoogleVerifier) Verify(ctx context.Context, accessToken string) (*domain.Identity, error) {
	endpoint := v.endpoint + "?access_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("google token verification failed", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider response unreadable", err)
	}

	if info.Email == "" {
		return nil, apperrors.NewUnauthorized("token missing required email scope")
	}
	if !bool(info.EmailVerified) {
		v.logger.Warn("email not verified", zap.String("email", info.Email))
		return nil, apperrors.NewForbidden("email not verified")
	}

	return &domain.Identity{
		Email:    info.Email,
		Name:     info.Name,
		Subject:  info.Sub,
		Provider: domain.ProviderGoogle,
	}, nil
}
