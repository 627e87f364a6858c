package service

import (
	"context"
	"fmt"

	"github.com/pkordes/taggable/internal/domain"
)

// Tags returns every tag on the entity, ordered by slug.
func (s *TaggingService) Tags(ctx context.Context, ref domain.TaggableRef) ([]domain.Tag, error) {
	return s.list(ctx, "Tags", ref, domain.TagQuery{})
}

// TagsWithType returns the entity's tags of type typ. A user id restricts the
// result to that user's tags; global tags are never mixed in.
func (s *TaggingService) TagsWithType(ctx context.Context, ref domain.TaggableRef, typ string, userID *int64) ([]domain.Tag, error) {
	return s.list(ctx, "TagsWithType", ref, s.opts.exact(domain.TagQuery{}.WithType(typ), userID))
}

// UserTags returns the entity's tags owned by userID. Global tags are not included.
func (s *TaggingService) UserTags(ctx context.Context, ref domain.TaggableRef, userID int64) ([]domain.Tag, error) {
	return s.list(ctx, "UserTags", ref, domain.TagQuery{}.ForUser(userID))
}

// GlobalTags returns the entity's tags that have no owner.
func (s *TaggingService) GlobalTags(ctx context.Context, ref domain.TaggableRef) ([]domain.Tag, error) {
	return s.list(ctx, "GlobalTags", ref, domain.TagQuery{}.Global())
}

func (s *TaggingService) list(ctx context.Context, op string, ref domain.TaggableRef, q domain.TagQuery) ([]domain.Tag, error) {
	tags, err := s.store.Taggables().ListTags(ctx, ref, q)
	if err != nil {
		return nil, fmt.Errorf("service.TaggingService.%s: %w", op, err)
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

// HasTag reports whether the entity carries a tag with name's slug visible
// to userID under the standard scoping rule.
func (s *TaggingService) HasTag(ctx context.Context, ref domain.TaggableRef, name string, userID *int64) (bool, error) {
	return s.has(ctx, "HasTag", ref, Names{name}, s.opts.scoped(domain.TagQuery{}, userID))
}

// HasUserTag reports whether the entity carries name as a tag owned by userID.
func (s *TaggingService) HasUserTag(ctx context.Context, ref domain.TaggableRef, name string, userID int64) (bool, error) {
	return s.has(ctx, "HasUserTag", ref, Names{name}, domain.TagQuery{}.ForUser(userID))
}

// HasGlobalTag reports whether the entity carries name as a global tag.
func (s *TaggingService) HasGlobalTag(ctx context.Context, ref domain.TaggableRef, name string) (bool, error) {
	return s.has(ctx, "HasGlobalTag", ref, Names{name}, domain.TagQuery{}.Global())
}

// HasAnyTag reports whether the entity carries at least one of names.
// An empty list is never matched.
func (s *TaggingService) HasAnyTag(ctx context.Context, ref domain.TaggableRef, names Names, userID *int64) (bool, error) {
	return s.has(ctx, "HasAnyTag", ref, names, s.opts.scoped(domain.TagQuery{}, userID))
}

func (s *TaggingService) has(ctx context.Context, op string, ref domain.TaggableRef, names Names, q domain.TagQuery) (bool, error) {
	q.Slugs = s.opts.slugs(names.clean())
	if len(q.Slugs) == 0 {
		return false, nil
	}
	n, err := s.store.Taggables().CountTags(ctx, ref, q)
	if err != nil {
		return false, fmt.Errorf("service.TaggingService.%s: %w", op, err)
	}
	return n > 0, nil
}

// HasAllTags reports whether the entity carries every one of names. A slug
// satisfied by both a user tag and a global tag counts once. An empty list
// is always matched.
func (s *TaggingService) HasAllTags(ctx context.Context, ref domain.TaggableRef, names Names, userID *int64) (bool, error) {
	q := s.opts.scoped(domain.TagQuery{}, userID)
	q.Slugs = s.opts.slugs(names.clean())
	if len(q.Slugs) == 0 {
		return true, nil
	}
	n, err := s.store.Taggables().CountDistinctSlugs(ctx, ref, q)
	if err != nil {
		return false, fmt.Errorf("service.TaggingService.HasAllTags: %w", err)
	}
	return n == int64(len(q.Slugs)), nil
}

// The predicates below filter entity ids of one taggable type. candidates
// lists the ids to filter and keeps its order; nil means every entity of
// that type with at least one tag.

// WithAnyTags keeps entities carrying at least one of names, optionally
// restricted to tags of sc.Type and scoped by the standard rule for sc.UserID.
func (s *TaggingService) WithAnyTags(ctx context.Context, taggableType string, candidates []string, names Names, sc Scope) ([]string, error) {
	slugs := s.opts.slugs(names.clean())
	if len(slugs) == 0 {
		return []string{}, nil
	}
	return s.match(ctx, "WithAnyTags", taggableType, candidates, domain.Membership{
		Mode:  domain.MatchAny,
		Slugs: slugs,
		Tags:  s.opts.scoped(domain.TagQuery{Type: normType(sc.Type)}, sc.UserID),
	})
}

// WithAllTags keeps entities carrying every one of names. An empty list
// keeps every candidate.
func (s *TaggingService) WithAllTags(ctx context.Context, taggableType string, candidates []string, names Names, sc Scope) ([]string, error) {
	return s.match(ctx, "WithAllTags", taggableType, candidates, domain.Membership{
		Mode:  domain.MatchAll,
		Slugs: s.opts.slugs(names.clean()),
		Tags:  s.opts.scoped(domain.TagQuery{Type: normType(sc.Type)}, sc.UserID),
	})
}

// WithoutTags keeps entities carrying none of names. Entities without any
// association only appear when listed in candidates. sc.UserID matches that
// user's tags only, so a global tag with one of the names does not exclude.
func (s *TaggingService) WithoutTags(ctx context.Context, taggableType string, candidates []string, names Names, sc Scope) ([]string, error) {
	return s.match(ctx, "WithoutTags", taggableType, candidates, domain.Membership{
		Mode:  domain.MatchNone,
		Slugs: s.opts.slugs(names.clean()),
		Tags:  s.opts.exact(domain.TagQuery{Type: normType(sc.Type)}, sc.UserID),
	})
}

// TaggedWith keeps entities carrying name as a tag owned by userID.
func (s *TaggingService) TaggedWith(ctx context.Context, taggableType string, candidates []string, name string, userID int64) ([]string, error) {
	slugs := s.opts.slugs(Names{name})
	if len(slugs) == 0 {
		return []string{}, nil
	}
	return s.match(ctx, "TaggedWith", taggableType, candidates, domain.Membership{
		Mode:  domain.MatchAny,
		Slugs: slugs,
		Tags:  domain.TagQuery{}.ForUser(userID),
	})
}

// WithUserTags keeps entities carrying at least one tag owned by userID.
func (s *TaggingService) WithUserTags(ctx context.Context, taggableType string, candidates []string, userID int64) ([]string, error) {
	return s.match(ctx, "WithUserTags", taggableType, candidates, domain.Membership{
		Mode: domain.MatchAny,
		Tags: domain.TagQuery{}.ForUser(userID),
	})
}

// WithGlobalTags keeps entities carrying at least one global tag.
func (s *TaggingService) WithGlobalTags(ctx context.Context, taggableType string, candidates []string) ([]string, error) {
	return s.match(ctx, "WithGlobalTags", taggableType, candidates, domain.Membership{
		Mode: domain.MatchAny,
		Tags: domain.TagQuery{}.Global(),
	})
}

// match runs m over candidates. Repeated candidate ids are kept once, at
// their first position.
func (s *TaggingService) match(ctx context.Context, op, taggableType string, candidates []string, m domain.Membership) ([]string, error) {
	if candidates != nil && len(candidates) == 0 {
		return []string{}, nil
	}
	candidates = uniqueIDs(candidates)
	ids, err := s.store.Taggables().Match(ctx, taggableType, candidates, m)
	if err != nil {
		return nil, fmt.Errorf("service.TaggingService.%s: %w", op, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func uniqueIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
