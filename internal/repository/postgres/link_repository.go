package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tinylink/internal/domain"
	"tinylink/internal/repository"
)

// linkRepository implements the LinkRepository interface for PostgreSQL
type linkRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewLinkRepository creates a new PostgreSQL link repository.
// Every store round-trip is bounded by the given timeout.
func NewLinkRepository(db *gorm.DB, timeout time.Duration) repository.LinkRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &linkRepository{db: db, timeout: timeout}
}

func (r *linkRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts a new link row. The unique index on code is the single
// source of truth for uniqueness; a duplicate-key violation comes back as
// domain.ErrCodeTaken so the caller can distinguish collision from failure.
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Create(link)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrCodeTaken
		}
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// FindByCode retrieves a link by its short code
// Returns ErrLinkNotFound if the code doesn't exist
func (r *linkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var link domain.Link
	result := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&link)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &link, nil
}

// ListAll returns all links ordered by creation time, newest first
func (r *linkRepository) ListAll(ctx context.Context) ([]domain.Link, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var links []domain.Link
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&links)

	if result.Error != nil {
		return nil, domain.NewInternalError(result.Error)
	}

	return links, nil
}

// RecordClick atomically increments the click counter and stamps last_clicked
// in a single UPDATE, so concurrent resolutions of the same code never lose
// or double-count an increment. The row is matched on id AND code: if a
// concurrent deletion got there first, zero rows match and the caller is
// told instead of reporting a phantom success.
func (r *linkRepository) RecordClick(ctx context.Context, id uint, code string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&domain.Link{}).
		Where("id = ? AND code = ?", id, code).
		Updates(map[string]interface{}{
			"total_clicks": gorm.Expr("total_clicks + ?", 1),
			"last_clicked": time.Now(),
		})

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// Delete removes a link permanently. No soft delete: a removed code can be
// reallocated afterwards.
func (r *linkRepository) Delete(ctx context.Context, code string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&domain.Link{})

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// ExistsByCode checks if a code exists without loading the full record
// More efficient than FindByCode when you only need an existence check
func (r *linkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	result := r.db.WithContext(ctx).
		Model(&domain.Link{}).
		Where("code = ?", code).
		Count(&count)

	if result.Error != nil {
		return false, domain.NewInternalError(result.Error)
	}

	return count > 0, nil
}

// Ping verifies the underlying connection pool is reachable
func (r *linkRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sqlDB, err := r.db.DB()
	if err != nil {
		return domain.ErrStoreUnavailable
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.ErrStoreUnavailable
	}
	return nil
}
