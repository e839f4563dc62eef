package model

import (
	"time"

	"gorm.io/gorm"
)

// Contact statuses
const (
	StatusPending  = "pending"
	StatusRead     = "read"
	StatusArchived = "archived"
)

// Contact represents an accepted contact form submission in the database
type Contact struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255);not null;index"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Status    string         `json:"status" gorm:"type:varchar(50);not null;default:pending"` // pending, read, archived
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// ValidStatus reports whether s is a known contact status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusRead, StatusArchived:
		return true
	}
	return false
}

// Submission is a validated, normalized contact form attempt.
// Subject is relayed in the email notification but never persisted.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// SubmissionRequest represents the request body for POST /api/v1/contact
type SubmissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmissionResponse represents the success response for POST /api/v1/contact
type SubmissionResponse struct {
	ID        uint   `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ContactResponse represents a persisted contact in listing responses
type ContactResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewContactResponse converts a Contact to its listing representation
func NewContactResponse(c *Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		Status:    c.Status,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ListOptions carries filter and pagination parameters for listing contacts
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// FieldError describes a single validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Database  string            `json:"database"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}
