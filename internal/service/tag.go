package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/taggable/internal/domain"
)

const (
	defaultPopularLimit = 20
	defaultSuggestLimit = 10
)

// TagService implements the tag store operations: find-or-create with slug
// dedup, the scoped read queries, popularity aggregation, and cleanup.
type TagService struct {
	store Store
	opts  Options
}

// NewTagService constructs a TagService backed by the provided store.
func NewTagService(store Store, opts Options) *TagService {
	return &TagService{store: store, opts: opts}
}

// FindOrCreate returns the tag identified by name's slug, type and owner,
// creating it if it does not exist. A nil type or userID matches only tags
// without one. Returns domain.ErrValidation if the name breaks a rule.
func (s *TagService) FindOrCreate(ctx context.Context, name string, typ *string, userID *int64) (domain.Tag, error) {
	tag, err := findOrCreate(ctx, s.store.Tags(), s.opts, name, typ, userID)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.FindOrCreate: %w", err)
	}
	return tag, nil
}

// FindOrCreateForUser is FindOrCreate for a tag owned by userID.
func (s *TagService) FindOrCreateForUser(ctx context.Context, name string, userID int64, typ *string) (domain.Tag, error) {
	return s.FindOrCreate(ctx, name, typ, &userID)
}

// FindOrCreateGlobal is FindOrCreate for a tag with no owner.
func (s *TagService) FindOrCreateGlobal(ctx context.Context, name string, typ *string) (domain.Tag, error) {
	return s.FindOrCreate(ctx, name, typ, nil)
}

// FindOrCreateMany resolves each name in order. Duplicate names resolve to
// the same tag and appear once per occurrence.
func (s *TagService) FindOrCreateMany(ctx context.Context, names []string, typ *string, userID *int64) ([]domain.Tag, error) {
	tags, err := findOrCreateMany(ctx, s.store.Tags(), s.opts, names, typ, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.FindOrCreateMany: %w", err)
	}
	return tags, nil
}

// Get returns a tag by id. Returns domain.ErrNotFound if it does not exist.
func (s *TagService) Get(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	tag, err := s.store.Tags().GetByID(ctx, id)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagService.Get: %w", err)
	}
	return tag, nil
}

// Usage returns how many entities carry the tag.
func (s *TagService) Usage(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := s.store.Taggables().CountFor(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("service.TagService.Usage: %w", err)
	}
	return n, nil
}

// Search returns one page of tags matching q and the total match count.
// Limit and Offset on q are replaced by the page.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TagService) Search(ctx context.Context, q domain.TagQuery, page domain.PaginationParams) ([]domain.TagUsage, int64, error) {
	q = page.Apply(q)

	tags, err := s.store.Tags().Query(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.Search: %w", err)
	}
	total, err := s.store.Tags().Count(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TagService.Search: %w", err)
	}
	if tags == nil {
		tags = []domain.TagUsage{}
	}
	return tags, total, nil
}

// Popular returns up to limit tags by descending usage, scoped by the
// standard rule for userID. A non-positive limit means 20.
func (s *TagService) Popular(ctx context.Context, limit int, userID *int64) ([]domain.TagUsage, error) {
	q := s.opts.scoped(domain.TagQuery{ByPopularity: true, Limit: popularLimit(limit)}, userID)
	return s.query(ctx, "Popular", q)
}

// PopularForUser returns userID's own most used tags, without global tags.
func (s *TagService) PopularForUser(ctx context.Context, limit int, userID int64) ([]domain.TagUsage, error) {
	q := domain.TagQuery{ByPopularity: true, Limit: popularLimit(limit)}.ForUser(userID)
	return s.query(ctx, "PopularForUser", q)
}

// PopularGlobal returns the most used global tags.
func (s *TagService) PopularGlobal(ctx context.Context, limit int) ([]domain.TagUsage, error) {
	q := domain.TagQuery{ByPopularity: true, Limit: popularLimit(limit)}.Global()
	return s.query(ctx, "PopularGlobal", q)
}

// TagCloud returns every tag in scope with its usage scaled to a 0-10 weight.
func (s *TagService) TagCloud(ctx context.Context, userID *int64) ([]domain.CloudTag, error) {
	q := s.opts.scoped(domain.TagQuery{ByPopularity: true}, userID)
	usages, err := s.query(ctx, "TagCloud", q)
	if err != nil {
		return nil, err
	}
	return Weigh(usages), nil
}

// Suggest returns up to limit tags whose name or slug contains partial,
// scoped like Popular. A non-positive limit means 10.
func (s *TagService) Suggest(ctx context.Context, partial string, userID *int64, limit int) ([]domain.Tag, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	q := s.opts.scoped(domain.TagQuery{Limit: limit}.Containing(strings.TrimSpace(partial)), userID)
	usages, err := s.query(ctx, "Suggest", q)
	if err != nil {
		return nil, err
	}
	return tagsOf(usages), nil
}

// Unused returns tags with no associations. globalOnly restricts the result
// to global tags; otherwise a non-nil userID restricts it to that user's tags.
// The user id is ignored when user scoping is disabled.
func (s *TagService) Unused(ctx context.Context, userID *int64, globalOnly bool) ([]domain.Tag, error) {
	q := domain.TagQuery{UnusedOnly: true}
	if globalOnly {
		q = q.Global()
	} else {
		q = s.opts.exact(q, userID)
	}
	usages, err := s.query(ctx, "Unused", q)
	if err != nil {
		return nil, err
	}
	return tagsOf(usages), nil
}

// Delete removes a tag and all of its associations.
// Returns domain.ErrNotFound if the tag does not exist.
func (s *TagService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Tags().Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TagService.Delete: %w", err)
	}
	return nil
}

// DeleteMany removes the given tags and reports how many were deleted.
// Ids that no longer exist are skipped.
func (s *TagService) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	n, err := s.store.Tags().DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("service.TagService.DeleteMany: %w", err)
	}
	return n, nil
}

func (s *TagService) query(ctx context.Context, op string, q domain.TagQuery) ([]domain.TagUsage, error) {
	usages, err := s.store.Tags().Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service.TagService.%s: %w", op, err)
	}
	if usages == nil {
		return []domain.TagUsage{}, nil
	}
	return usages, nil
}

func popularLimit(limit int) int {
	if limit <= 0 {
		return defaultPopularLimit
	}
	return limit
}

func tagsOf(usages []domain.TagUsage) []domain.Tag {
	tags := make([]domain.Tag, len(usages))
	for i, u := range usages {
		tags[i] = u.Tag
	}
	return tags
}
