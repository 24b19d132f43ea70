package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/config"
	"github.com/spec-kit/inquiry-service/internal/domain"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

const naverSuccessCode = "00"

// NaverVerifier introspects access tokens against Naver's profile endpoint.
type NaverVerifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNaverVerifier builds the verifier.
func NewNaverVerifier(cfg config.AuthConfig, logger *zap.Logger) *NaverVerifier {
	return &NaverVerifier{
		endpoint:   cfg.NaverUserInfoURL,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
		logger:     logger,
	}
}

type naverUserInfo struct {
	ResultCode string       `json:"resultcode"`
	Message    string       `json:"message"`
	Response   naverProfile `json:"response"`
}

type naverProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verify introspects the token once and requires a present email claim.
func (v *NaverVerifier) Verify(ctx context.Context, accessToken string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("naver token verification failed", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}

	var info naverUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider response unreadable", err)
	}

	if info.ResultCode != naverSuccessCode {
		v.logger.Warn("naver profile lookup failed", zap.String("resultcode", info.ResultCode))
		return nil, apperrors.NewUnauthorized("token validation failed")
	}
	if info.Response.Email == "" {
		return nil, apperrors.NewUnauthorized("token missing required email scope")
	}

	return &domain.Identity{
		Email:    info.Response.Email,
		Name:     info.Response.Name,
		Subject:  info.Response.ID,
		Provider: domain.ProviderNaver,
	}, nil
}

// TokenExchanger swaps a Naver authorization code for tokens and the
// resulting profile, used by the public login callback.
type TokenExchanger struct {
	cfg        config.AuthConfig
	verifier   *NaverVerifier
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTokenExchanger builds the exchanger.
func NewTokenExchanger(cfg config.AuthConfig, logger *zap.Logger) *TokenExchanger {
	return &TokenExchanger{
		cfg:        cfg,
		verifier:   NewNaverVerifier(cfg, logger),
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
		logger:     logger,
	}
}

// TokenExchange carries the outcome of a code-for-token swap.
type TokenExchange struct {
	Identity     domain.Identity
	AccessToken  string
	RefreshToken string
}

type naverTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange swaps the authorization code and loads the profile behind it.
func (t *TokenExchanger) Exchange(ctx context.Context, code, state string) (*TokenExchange, error) {
	if code == "" || state == "" {
		return nil, apperrors.NewBadRequest("missing code or state", nil)
	}
	if t.cfg.NaverClientID == "" || t.cfg.NaverClientSecret == "" {
		return nil, apperrors.NewServerConfigError("naver oauth not configured")
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {t.cfg.NaverClientID},
		"client_secret": {t.cfg.NaverClientSecret},
		"code":          {code},
		"state":         {state},
		"redirect_uri":  {t.cfg.NaverRedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.NaverTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("naver token exchange failed", zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewUnauthorized("failed to exchange code for token")
	}

	var token naverTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("identity provider response unreadable", err)
	}
	if token.Error != "" {
		message := token.ErrorDescription
		if message == "" {
			message = token.Error
		}
		return nil, apperrors.NewUnauthorized(message)
	}

	identity, err := t.verifier.Verify(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &TokenExchange{
		Identity:     *identity,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
