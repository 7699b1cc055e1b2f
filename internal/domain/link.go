package domain

import (
	"time"
)

// Link represents a stored mapping from a short code to its original URL.
// This is the core domain entity of the service.
type Link struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null;size:64" json:"code"`
	OriginalURL string     `gorm:"not null;type:text" json:"original_url"`
	ShortURL    string     `gorm:"not null" json:"short_url"`
	Title       string     `gorm:"not null" json:"title"`
	TotalClicks int64      `gorm:"not null;default:0" json:"total_clicks"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastClicked *time.Time `json:"last_clicked"` // Nullable until the first resolution
}

// TableName specifies the table name for GORM
func (Link) TableName() string {
	return "links"
}

// CreateLinkRequest represents the request payload for creating a link.
// Code is optional; when blank the allocator generates one.
type CreateLinkRequest struct {
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	Code        string `json:"code"`
}

// APIResponse is the response envelope every JSON endpoint uses.
// Kept wire-compatible with the existing dashboard clients.
type APIResponse struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	ErrorMsg   string      `json:"error_msg,omitempty"`
}

// HealthResponse represents the /healthz payload
type HealthResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Database   string    `json:"database"`
	ServerTime time.Time `json:"server_time"`
	Uptime     float64   `json:"uptime"` // Seconds since process start
	Message    string    `json:"message,omitempty"`
}
