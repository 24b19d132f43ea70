package domain

import "time"

// InquiryCategory enumerates the closed set of accepted consultation categories.
type InquiryCategory string

const (
	CategoryVisa           InquiryCategory = "visa"
	CategoryStay           InquiryCategory = "stay"
	CategoryNaturalization InquiryCategory = "naturalization"
	CategoryNonprofit      InquiryCategory = "nonprofit"
	CategoryCorporate      InquiryCategory = "corporate"
	CategoryCivil          InquiryCategory = "civil"
	CategoryOther          InquiryCategory = "other"
	CategoryEtc            InquiryCategory = "etc"
)

// AllCategories lists every accepted category value.
var AllCategories = []InquiryCategory{
	CategoryVisa,
	CategoryStay,
	CategoryNaturalization,
	CategoryNonprofit,
	CategoryCorporate,
	CategoryCivil,
	CategoryOther,
	CategoryEtc,
}

// IsValidCategory reports whether the value is part of the closed set.
func IsValidCategory(value string) bool {
	for _, c := range AllCategories {
		if string(c) == value {
			return true
		}
	}
	return false
}

// NationalityOther is the sentinel for nationalities outside the ISO code set.
const NationalityOther = "OTHER"

// StatusNew is the status label assigned to freshly accepted submissions.
const StatusNew = "new"

// Attachment describes a stored file referenced by exactly one inquiry.
type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"type,omitempty"`
	Size        *int64 `json:"size,omitempty"`
}

// Inquiry is the aggregate created from one public submission.
type Inquiry struct {
	ID          string
	Number      int64
	Confirmed   bool
	Name        string
	Phone       string
	Email       *string
	Company     *string
	Category    InquiryCategory
	Nationality string
	Message     string
	Attachments []Attachment
	SubmitterIP string
	RiskScore   float64
	Status      string
	Notes       *string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	UpdatedBy   *string
}

// InquiryUpdate carries the staff-editable fields for a partial update.
// Nil fields are left untouched.
type InquiryUpdate struct {
	Confirmed  *bool
	Status     *string
	Notes      *string
	AssignedTo *string
}

// Empty reports whether the update carries no field at all.
func (u InquiryUpdate) Empty() bool {
	return u.Confirmed == nil && u.Status == nil && u.Notes == nil && u.AssignedTo == nil
}
