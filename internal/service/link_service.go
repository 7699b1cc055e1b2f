package service

import (
	"context"

	"tinylink/internal/domain"
)

// LinkService defines the business logic interface for link operations
// This layer orchestrates between the repository, cache, and code generator
type LinkService interface {
	// Allocate creates a new link, using the requested code when provided
	// or generating one. scheme and host come from the transport and are
	// frozen into the stored short_url.
	Allocate(ctx context.Context, req *domain.CreateLinkRequest, scheme, host string) (*domain.Link, error)

	// Resolve returns the original URL for a code and records the visit
	// (click counter + last_clicked) as one atomic unit
	Resolve(ctx context.Context, code string) (string, error)

	// GetByCode returns the stored link for a code
	GetByCode(ctx context.Context, code string) (*domain.Link, error)

	// ListAll returns every link, newest first
	ListAll(ctx context.Context) ([]domain.Link, error)

	// Remove deletes a link permanently
	Remove(ctx context.Context, code string) error
}
