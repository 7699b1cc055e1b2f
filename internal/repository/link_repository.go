package repository

import (
	"context"

	"tinylink/internal/domain"
)

// LinkRepository defines the contract for link data access.
// The store's unique index on code is the authoritative uniqueness guard:
// Create reports a collision as domain.ErrCodeTaken, so callers never need
// a check-then-insert of their own.
type LinkRepository interface {
	// Create stores a new link. Returns domain.ErrCodeTaken if the code is
	// already present (unique constraint violation).
	Create(ctx context.Context, link *domain.Link) error

	// FindByCode retrieves a link by its short code
	FindByCode(ctx context.Context, code string) (*domain.Link, error)

	// ListAll returns every link, newest first
	ListAll(ctx context.Context) ([]domain.Link, error)

	// RecordClick atomically increments total_clicks and sets last_clicked,
	// matching on both id and code so a concurrent deletion cannot be
	// counted. Returns domain.ErrLinkNotFound when no row matched.
	RecordClick(ctx context.Context, id uint, code string) error

	// Delete removes a link by its short code. Hard delete.
	Delete(ctx context.Context, code string) error

	// ExistsByCode checks if a code exists without fetching the row.
	// Advisory only; Create remains the authoritative guard.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Ping verifies store connectivity for health checks
	Ping(ctx context.Context) error
}
