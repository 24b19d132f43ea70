package validation

import (
	"regexp"
	"strings"

	"github.com/spec-kit/inquiry-service/internal/domain"
)

const (
	maxNameLen       = 100
	minMessageLen    = 10
	maxMessageLen    = 2000
	maxAttachments   = 5
	maxAttachName    = 200
	maxAttachPath    = 300
	maxAttachURL     = 1000
	maxAttachType    = 100
	maxSafeFileName  = 120
	fallbackFileName = "file"
)

var (
	phonePattern       = regexp.MustCompile(`^[0-9\s\-]{7,20}$`)
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nationalityPattern = regexp.MustCompile(`^[A-Z]{2,3}$`)
	unsafeFileChars    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedDots       = regexp.MustCompile(`\.+`)
)

// RawSubmission is the untrusted public payload before any normalization.
type RawSubmission struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Company     string          `json:"company"`
	Category    string          `json:"category"`
	Nationality string          `json:"nationality"`
	Message     string          `json:"message"`
	Token       string          `json:"recaptchaToken"`
	Attachments []RawAttachment `json:"attachments"`
}

// RawAttachment mirrors the loose attachment objects clients send.
type RawAttachment struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	UploadURL string `json:"uploadUrl"`
	Type      string `json:"type"`
	Size      *int64 `json:"size"`
}

// Submission is the normalized result of a successful validation.
type Submission struct {
	Name        string
	Phone       string
	Email       *string
	Company     *string
	Category    domain.InquiryCategory
	Nationality string
	Message     string
	Token       string
	Attachments []domain.Attachment
}

// ValidateSubmission normalizes the raw payload and returns either the clean
// submission or the names of every failing field. It never panics on
// malformed input, and it never accepts a partially valid submission.
func ValidateSubmission(raw RawSubmission) (*Submission, []string) {
	var errs []string

	name := strings.TrimSpace(raw.Name)
	phone := strings.TrimSpace(raw.Phone)
	email := strings.TrimSpace(raw.Email)
	company := strings.TrimSpace(raw.Company)
	message := strings.TrimSpace(raw.Message)
	category := strings.ToLower(strings.TrimSpace(raw.Category))
	nationality := strings.ToUpper(strings.TrimSpace(raw.Nationality))

	if name == "" || len(name) > maxNameLen {
		errs = append(errs, "name")
	}
	if !phonePattern.MatchString(phone) {
		errs = append(errs, "phone")
	}
	if email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, "email")
	}
	if !domain.IsValidCategory(category) {
		errs = append(errs, "category")
	}
	if !nationalityPattern.MatchString(nationality) && nationality != domain.NationalityOther {
		errs = append(errs, "nationality")
	}
	if len(message) < minMessageLen || len(message) > maxMessageLen {
		errs = append(errs, "message")
	}
	if strings.TrimSpace(raw.Token) == "" {
		errs = append(errs, "recaptchaToken")
	}

	attachments, attachErr := coerceAttachments(raw.Attachments)
	if attachErr {
		errs = append(errs, "attachments")
	}

	if len(errs) > 0 {
		return nil, errs
	}

	sub := &Submission{
		Name:        name,
		Phone:       phone,
		Category:    domain.InquiryCategory(category),
		Nationality: nationality,
		Message:     message,
		Token:       strings.TrimSpace(raw.Token),
		Attachments: attachments,
	}
	if email != "" {
		sub.Email = &email
	}
	if company != "" {
		sub.Company = &company
	}
	return sub, nil
}

// coerceAttachments caps the list at five entries and drops malformed ones.
// Surviving entries that still exceed the length bounds fail the submission.
func coerceAttachments(raw []RawAttachment) ([]domain.Attachment, bool) {
	if len(raw) > maxAttachments {
		raw = raw[:maxAttachments]
	}
	out := make([]domain.Attachment, 0, len(raw))
	for _, item := range raw {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = fallbackFileName
		}
		path := strings.TrimSpace(item.Path)
		if path == "" {
			path = strings.TrimSpace(item.Filename)
		}
		url := strings.TrimSpace(item.URL)
		if url == "" {
			url = strings.TrimSpace(item.UploadURL)
		}
		if len(name) > maxAttachName || len(path) > maxAttachPath {
			return nil, true
		}
		att := domain.Attachment{
			Name:        truncate(name, maxAttachName),
			Path:        truncate(path, maxAttachPath),
			URL:         truncate(url, maxAttachURL),
			ContentType: truncate(strings.TrimSpace(item.Type), maxAttachType),
			Size:        item.Size,
		}
		out = append(out, att)
	}
	return out, false
}

// SafeFileName reduces a display name to the character set allowed in
// storage keys, collapses repeated dots and caps the length. An empty
// result falls back to a generic name.
func SafeFileName(raw string) string {
	safe := unsafeFileChars.ReplaceAllString(strings.TrimSpace(raw), "_")
	safe = repeatedDots.ReplaceAllString(safe, ".")
	safe = truncate(safe, maxSafeFileName)
	if safe == "" || safe == "." {
		return fallbackFileName
	}
	return safe
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
