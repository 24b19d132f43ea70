package auth

import (
	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/domain"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// Policy gates staff operations on a statically configured email whitelist.
type Policy struct {
	allowed map[string]struct{}
	logger  *zap.Logger
}

// NewPolicy builds the policy from the configured email list.
func NewPolicy(allowedEmails []string, logger *zap.Logger) *Policy {
	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, email := range allowedEmails {
		if email != "" {
			allowed[email] = struct{}{}
		}
	}
	return &Policy{allowed: allowed, logger: logger}
}

// Authorize accepts iff the identity's email is an exact, case-sensitive
// member of the whitelist. An empty whitelist is a misconfiguration and
// fails closed.
func (p *Policy) Authorize(identity *domain.Identity) error {
	if len(p.allowed) == 0 {
		p.logger.Error("staff email whitelist is empty")
		return apperrors.NewServerConfigError("server configuration error")
	}
	if _, ok := p.allowed[identity.Email]; !ok {
		p.logger.Warn("access denied for unauthorized email",
			zap.String("email", identity.Email),
			zap.String("provider", string(identity.Provider)))
		return apperrors.NewForbidden("access denied - unauthorized email")
	}
	return nil
}
