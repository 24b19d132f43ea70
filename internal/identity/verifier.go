package identity

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/config"
	"github.com/spec-kit/inquiry-service/internal/domain"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// Verifier checks one provider's bearer credential and returns a normalized
// identity. Every protected request re-verifies; results are never cached.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// Registry resolves the verifier for a request-supplied provider tag.
// Adding a provider means registering one more verifier, not touching callers.
type Registry struct {
	verifiers map[domain.Provider]Verifier
}

// NewRegistry wires the supported providers.
func NewRegistry(cfg config.AuthConfig, logger *zap.Logger) *Registry {
	return &Registry{
		verifiers: map[domain.Provider]Verifier{
			domain.ProviderGoogle: NewGoogleVerifier(cfg, logger),
			domain.ProviderNaver:  NewNaverVerifier(cfg, logger),
		},
	}
}

// Resolve returns the verifier for the tag, defaulting to Google when the tag
// is empty. An unrecognized tag fails before any network call.
func (r *Registry) Resolve(tag string) (Verifier, error) {
	provider := domain.Provider(tag)
	if tag == "" {
		provider = domain.ProviderGoogle
	}
	verifier, ok := r.verifiers[provider]
	if !ok {
		return nil, apperrors.NewBadRequest("unsupported authentication provider", nil)
	}
	return verifier, nil
}

func newHTTPClient(timeoutSeconds int) *http.Client {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
