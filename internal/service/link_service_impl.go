package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tinylink/internal/cache"
	"tinylink/internal/config"
	"tinylink/internal/domain"
	"tinylink/internal/repository"
	"tinylink/internal/shortener"
	"tinylink/pkg/logger"
)

// linkService implements the LinkService interface
type linkService struct {
	repo      repository.LinkRepository
	cache     cache.Cache
	cfg       *config.Config
	logger    *logger.Logger
	generator *shortener.CodeGenerator
}

// NewLinkService creates a new link service with dependencies injected
func NewLinkService(
	repo repository.LinkRepository,
	cache cache.Cache,
	cfg *config.Config,
	logger *logger.Logger,
) LinkService {
	return &linkService{
		repo:      repo,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		generator: shortener.NewCodeGenerator(cfg.CodeLength),
	}
}

// Allocate validates the request and commits a new link under a unique code.
// The store's unique index is the authoritative uniqueness guard: the
// pre-check for caller-supplied codes only exists to fail fast, and a
// conflict surfacing from the insert itself is handled identically.
func (s *linkService) Allocate(ctx context.Context, req *domain.CreateLinkRequest, scheme, host string) (*domain.Link, error) {
	originalURL := strings.TrimSpace(req.OriginalURL)
	if originalURL == "" {
		return nil, domain.NewMissingParamError("original_url")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.NewMissingParamError("title")
	}

	requested := strings.TrimSpace(req.Code)
	if requested != "" {
		return s.allocateRequested(ctx, title, originalURL, requested, scheme, host)
	}
	return s.allocateGenerated(ctx, title, originalURL, scheme, host)
}

// allocateRequested commits a link under a caller-chosen code.
// A collision is terminal: the caller picked the code, so there is nothing
// to retry.
func (s *linkService) allocateRequested(ctx context.Context, title, originalURL, code, scheme, host string) (*domain.Link, error) {
	if !shortener.IsValid(code) {
		return nil, domain.NewValidationError("Code contains invalid characters")
	}

	// Advisory fast path: catches most conflicts before paying for an
	// insert. The unique index still decides.
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		s.logger.Error("Failed to check code existence", "error", err)
		return nil, err
	}
	if exists {
		return nil, domain.ErrCodeTaken
	}

	link := s.newLink(title, originalURL, code, scheme, host)
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, domain.ErrCodeTaken) {
			// Lost the race between pre-check and insert
			return nil, domain.ErrCodeTaken
		}
		s.logger.Error("Failed to create link", "error", err, "code", code)
		return nil, err
	}

	s.cacheLink(ctx, link)
	s.logger.Info("Link allocated", "code", code, "custom", true)
	return link, nil
}

// allocateGenerated commits a link under a generated code, retrying on the
// (rare) collision up to the configured budget. No pre-check: insert and
// let the unique index arbitrate.
func (s *linkService) allocateGenerated(ctx context.Context, title, originalURL, scheme, host string) (*domain.Link, error) {
	for attempt := 1; attempt <= s.cfg.AllocMaxAttempts; attempt++ {
		code := s.generator.Generate()
		link := s.newLink(title, originalURL, code, scheme, host)

		err := s.repo.Create(ctx, link)
		if err == nil {
			s.cacheLink(ctx, link)
			s.logger.Info("Link allocated", "code", code, "custom", false, "attempt", attempt)
			return link, nil
		}

		if errors.Is(err, domain.ErrCodeTaken) {
			s.logger.Warn("Generated code collided, retrying", "code", code, "attempt", attempt)
			continue
		}

		// A timed-out insert may still have landed. Re-check before giving
		// up so a committed row is not reported as a failure.
		if errors.Is(err, context.DeadlineExceeded) {
			if stored, ferr := s.repo.FindByCode(ctx, code); ferr == nil &&
				stored.OriginalURL == originalURL && stored.Title == title {
				s.logger.Warn("Insert timed out but committed", "code", code)
				s.cacheLink(ctx, stored)
				return stored, nil
			}
		}

		s.logger.Error("Failed to create link", "error", err, "code", code)
		return nil, err
	}

	s.logger.Error("Code generation exhausted", "attempts", s.cfg.AllocMaxAttempts)
	return nil, domain.ErrGenerationExhausted
}

// Resolve returns the original URL for a code after durably recording the
// visit. The counter update is a single conditional UPDATE keyed on id and
// code, so every successful resolve contributes exactly one increment and a
// concurrent delete is reported, never silently absorbed.
func (s *linkService) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", domain.NewMissingParamError("code")
	}

	// Cache fast path: skips the lookup SELECT but still pays for the
	// conditional UPDATE, so no click is ever counted from cache alone.
	if s.cache != nil {
		if id, originalURL, ok := s.cachedLink(ctx, code); ok {
			err := s.repo.RecordClick(ctx, id, code)
			if err == nil {
				return originalURL, nil
			}
			if errors.Is(err, domain.ErrLinkNotFound) {
				// Stale cache entry: the link was deleted
				s.invalidate(ctx, code)
				return "", domain.ErrLinkNotFound
			}
			return "", err
		}
	}

	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.repo.RecordClick(ctx, link.ID, link.Code); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			// The row existed a moment ago; a concurrent deletion won
			return "", domain.ErrUpdateRaceLost
		}
		s.logger.Error("Failed to record click", "error", err, "code", code)
		return "", err
	}

	s.cacheLink(ctx, link)
	return link.OriginalURL, nil
}

// GetByCode returns the stored link for a code
func (s *linkService) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	if code == "" {
		return nil, domain.NewMissingParamError("code")
	}
	return s.repo.FindByCode(ctx, code)
}

// ListAll returns every link, newest first
func (s *linkService) ListAll(ctx context.Context) ([]domain.Link, error) {
	return s.repo.ListAll(ctx)
}

// Remove deletes a link and invalidates its cache entry
func (s *linkService) Remove(ctx context.Context, code string) error {
	if code == "" {
		return domain.NewMissingParamError("code")
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}

	s.invalidate(ctx, code)
	s.logger.Info("Link removed", "code", code)
	return nil
}

// newLink builds a Link entity with the short URL frozen from the
// transport-provided scheme and host
func (s *linkService) newLink(title, originalURL, code, scheme, host string) *domain.Link {
	return &domain.Link{
		Code:        code,
		OriginalURL: originalURL,
		ShortURL:    fmt.Sprintf("%s://%s/%s", scheme, host, code),
		Title:       title,
		TotalClicks: 0,
	}
}

// cacheLink stores the id and original URL for a code. Best effort: cache
// failures are logged, never surfaced.
func (s *linkService) cacheLink(ctx context.Context, link *domain.Link) {
	if s.cache == nil {
		return
	}
	value := fmt.Sprintf("%d|%s", link.ID, link.OriginalURL)
	if err := s.cache.Set(ctx, link.Code, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", "error", err, "code", link.Code)
	}
}

// cachedLink retrieves and decodes a cached id|url pair for a code
func (s *linkService) cachedLink(ctx context.Context, code string) (uint, string, bool) {
	value, err := s.cache.Get(ctx, code)
	if err != nil || value == "" {
		return 0, "", false
	}

	idPart, urlPart, found := strings.Cut(value, "|")
	if !found {
		return 0, "", false
	}

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || urlPart == "" {
		return 0, "", false
	}

	return uint(id), urlPart, true
}

// invalidate drops a cache entry. Best effort.
func (s *linkService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Warn("Failed to invalidate cache", "error", err, "code", code)
	}
}
