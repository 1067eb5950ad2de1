// Package content manages blog posts through a two-tier resilient
// store: a remote primary and a local fallback with the same CRUD
// contract. Every operation reports which tier served it, so callers
// and a future sync job can tell a degraded write from a normal one.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/afflytics/afflytics/internal/metrics"
	"github.com/afflytics/afflytics/internal/model"
	"github.com/afflytics/afflytics/internal/repository"
)

// Tier identifies which store served an operation.
type Tier string

// Store tiers.
const (
	TierPrimary  Tier = metrics.TierPrimary
	TierFallback Tier = metrics.TierFallback
)

// Store is the CRUD contract both tiers implement.
type Store interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
}

// Service composes the primary and fallback stores. Mutations try the
// primary first; on any remote failure they are retried once against
// the fallback with the same insert/replace/remove-by-id semantics.
// Entries written locally during an outage stay local until manually
// migrated; no background reconciliation runs here.
type Service struct {
	primary  Store
	fallback Store
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a content Service over the two store tiers.
func NewService(primary, fallback Store, recorder metrics.Recorder, logger *slog.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		recorder: recorder,
		logger:   logger.With("component", "content.service"),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a new post, minting an id and timestamps.
func (s *Service) Create(ctx context.Context, post *model.Post) (Tier, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := s.now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	tier, err := s.write(ctx, "create", func(store Store) error {
		return store.Create(ctx, post)
	})
	if err != nil {
		return tier, err
	}
	s.recorder.IncPostWrite(string(tier))
	return tier, nil
}

// Update replaces a post's mutable fields. A missing target surfaces
// repository.ErrNotFound; that is a semantic answer from the primary,
// not an outage, so no fallback is attempted for it.
func (s *Service) Update(ctx context.Context, post *model.Post) (Tier, error) {
	post.UpdatedAt = s.now().UTC()

	tier, err := s.write(ctx, "update", func(store Store) error {
		return store.Update(ctx, post)
	})
	if err != nil {
		return tier, err
	}
	s.recorder.IncPostWrite(string(tier))
	return tier, nil
}

// Delete removes a post by id.
func (s *Service) Delete(ctx context.Context, id string) (Tier, error) {
	tier, err := s.write(ctx, "delete", func(store Store) error {
		return store.Delete(ctx, id)
	})
	if err != nil {
		return tier, err
	}
	s.recorder.IncPostWrite(string(tier))
	return tier, nil
}

// write runs a mutation against the primary and retries once against
// the fallback on any remote failure.
func (s *Service) write(ctx context.Context, op string, fn func(Store) error) (Tier, error) {
	err := fn(s.primary)
	if err == nil {
		return TierPrimary, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return TierPrimary, err
	}

	s.logger.Warn("primary write failed, retrying against local cache", "op", op, "error", err)
	if fbErr := fn(s.fallback); fbErr != nil {
		return TierFallback, fmt.Errorf("%s: fallback after %v: %w", op, err, fbErr)
	}
	return TierFallback, nil
}

// Get prefers the primary and falls back to the local collection on a
// remote error, or when the primary has never seen the id (it may have
// been written locally during an outage).
func (s *Service) Get(ctx context.Context, id string) (*model.Post, Tier, error) {
	post, err := s.primary.Get(ctx, id)
	if err == nil {
		s.recorder.IncPostRead(string(TierPrimary))
		return post, TierPrimary, nil
	}

	post, fbErr := s.fallback.Get(ctx, id)
	if fbErr != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TierPrimary, err
		}
		return nil, TierFallback, fmt.Errorf("get post: fallback after %v: %w", err, fbErr)
	}
	s.recorder.IncPostRead(string(TierFallback))
	return post, TierFallback, nil
}

// List prefers the primary; a remote error or an empty remote result
// falls through to the local collection, filtered and sorted by the
// same rules the primary applies.
func (s *Service) List(ctx context.Context) ([]model.Post, Tier, error) {
	posts, err := s.primary.List(ctx)
	if err == nil && len(posts) > 0 {
		s.recorder.IncPostRead(string(TierPrimary))
		return posts, TierPrimary, nil
	}

	local, fbErr := s.fallback.List(ctx)
	if fbErr != nil {
		if err != nil {
			return nil, TierFallback, fmt.Errorf("list posts: fallback after %v: %w", err, fbErr)
		}
		// Primary answered with an empty list and the cache is broken;
		// the empty remote answer is still authoritative.
		s.recorder.IncPostRead(string(TierPrimary))
		return posts, TierPrimary, nil
	}
	if err == nil && len(local) == 0 {
		s.recorder.IncPostRead(string(TierPrimary))
		return posts, TierPrimary, nil
	}
	if err != nil {
		s.logger.Warn("primary list failed, serving local cache", "error", err)
	}
	s.recorder.IncPostRead(string(TierFallback))
	return local, TierFallback, nil
}
