package domain

// Provider tags the identity provider that issued a staff credential.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderNaver  Provider = "naver"
)

// Identity is the normalized, per-request result of credential verification.
// It is never persisted as its own entity.
type Identity struct {
	Email    string
	Name     string
	Subject  string
	Provider Provider
}

// Reference returns the value recorded as updated-by on mutated inquiries.
func (i Identity) Reference() string {
	if i.Subject != "" {
		return i.Subject
	}
	return i.Email
}
