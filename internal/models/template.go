package models

import "time"

// Template is a named, saved worksheet configuration.
type Template struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Settings   Settings         `json:"settings"`
	CreatedBy  string           `json:"created_by"`
	OwnerID    *int64           `json:"owner_id,omitempty"`
	IsPublic   bool             `json:"is_public"`
	Metadata   TemplateMetadata `json:"metadata"`
	UsageStats UsageStats       `json:"usage_stats"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type TemplateMetadata struct {
	GradeLevel string   `json:"grade_level,omitempty" validate:"max=50"`
	Subject    string   `json:"subject" validate:"max=100"`
	Tags       []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
}

type UsageStats struct {
	TimesUsed     int        `json:"times_used"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
	Ratings       []int      `json:"ratings"`
	AverageRating float64    `json:"average_rating"`
}

const (
	DefaultSubject   = "Mathematics"
	AnonymousCreator = "anonymous"
)

// ── API Request/Response Types ────────────────────────────

type SaveTemplateRequest struct {
	Name     string            `json:"name" validate:"required,min=1,max=255"`
	Settings *Settings         `json:"settings" validate:"required"`
	IsPublic bool              `json:"is_public"`
	Metadata *TemplateMetadata `json:"metadata,omitempty"`
}

type UpdateTemplateRequest struct {
	Name     *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Settings *Settings         `json:"settings,omitempty"`
	IsPublic *bool             `json:"is_public,omitempty"`
	Metadata *TemplateMetadata `json:"metadata,omitempty"`
}

type RateTemplateRequest struct {
	Rating int `json:"rating" validate:"min=1,max=5"`
}

type TemplateListResponse struct {
	Templates []Template `json:"templates"`
	Total     int        `json:"total"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
