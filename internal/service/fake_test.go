package service_test

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/repo"
)

// ---- in-memory store -------------------------------------------------------

type link struct {
	ref   domain.TaggableRef
	tagID uuid.UUID
}

// memStore is an in-memory service.Store. It mirrors the Postgres repos'
// filter and ordering rules closely enough for service tests, and rolls
// back every change made inside a failed InTx.
type memStore struct {
	tags  []domain.Tag
	links []link
	clock time.Time

	// beforeInsert, when set, runs before each insert; a non-nil error aborts it.
	beforeInsert func(t domain.Tag) error
	// attachErr, when set, is returned by every Attach call.
	attachErr error

	txCount int
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) Tags() repo.TagRepo           { return memTags{m} }
func (m *memStore) Taggables() repo.TaggableRepo { return memLinks{m} }

func (m *memStore) InTx(ctx context.Context, fn func(repo.TagRepo, repo.TaggableRepo) error) error {
	m.txCount++
	tags, links := slices.Clone(m.tags), slices.Clone(m.links)
	if err := fn(memTags{m}, memLinks{m}); err != nil {
		m.tags, m.links = tags, links
		return err
	}
	return nil
}

func (m *memStore) usage(id uuid.UUID) int64 {
	var n int64
	for _, l := range m.links {
		if l.tagID == id {
			n++
		}
	}
	return n
}

func (m *memStore) linkCount() int { return len(m.links) }

// matches applies the TagQuery filters the way tagConditions does.
func (m *memStore) matches(t domain.Tag, q domain.TagQuery, skipSlugs bool) bool {
	switch q.Owner {
	case domain.OwnerExact:
		if t.UserID == nil || *t.UserID != q.UserID {
			return false
		}
	case domain.OwnerMixed:
		if t.UserID != nil && *t.UserID != q.UserID {
			return false
		}
	case domain.OwnerGlobal:
		if t.UserID != nil {
			return false
		}
	}
	if q.Type != nil && (t.Type == nil || *t.Type != *q.Type) {
		return false
	}
	if len(q.Slugs) > 0 && !skipSlugs && !slices.Contains(q.Slugs, t.Slug) {
		return false
	}
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Name), s) && !strings.Contains(t.Slug, s) {
			return false
		}
	}
	if q.UnusedOnly && m.usage(t.ID) > 0 {
		return false
	}
	return true
}

func (m *memStore) byID(id uuid.UUID) (domain.Tag, bool) {
	for _, t := range m.tags {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Tag{}, false
}

func eqInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ---- TagRepo ---------------------------------------------------------------

type memTags struct{ m *memStore }

func (r memTags) FindExact(_ context.Context, slug string, userID *int64, typ *string) (domain.Tag, error) {
	for _, t := range r.m.tags {
		if t.Slug == slug && eqInt(t.UserID, userID) && eqStr(t.Type, typ) {
			return t, nil
		}
	}
	return domain.Tag{}, domain.ErrNotFound
}

func (r memTags) Insert(_ context.Context, t domain.Tag) (domain.Tag, error) {
	if r.m.beforeInsert != nil {
		if err := r.m.beforeInsert(t); err != nil {
			return domain.Tag{}, err
		}
	}
	for _, e := range r.m.tags {
		if e.Slug == t.Slug && eqInt(e.UserID, t.UserID) && eqStr(e.Type, t.Type) {
			return domain.Tag{}, domain.ErrConflict
		}
	}
	r.m.clock = r.m.clock.Add(time.Second)
	t.ID = uuid.New()
	t.CreatedAt, t.UpdatedAt = r.m.clock, r.m.clock
	r.m.tags = append(r.m.tags, t)
	return t, nil
}

func (r memTags) GetByID(_ context.Context, id uuid.UUID) (domain.Tag, error) {
	if t, ok := r.m.byID(id); ok {
		return t, nil
	}
	return domain.Tag{}, domain.ErrNotFound
}

func (r memTags) filter(q domain.TagQuery) []domain.TagUsage {
	out := []domain.TagUsage{}
	for _, t := range r.m.tags {
		if r.m.matches(t, q, false) {
			out = append(out, domain.TagUsage{Tag: t, Count: r.m.usage(t.ID)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.ByPopularity && a.Count != b.Count {
			return a.Count > b.Count
		}
		if !q.ByPopularity && a.Slug != b.Slug {
			return a.Slug < b.Slug
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (r memTags) Query(_ context.Context, q domain.TagQuery) ([]domain.TagUsage, error) {
	out := r.filter(q)
	if q.Offset > 0 {
		out = out[min(q.Offset, len(out)):]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r memTags) Count(_ context.Context, q domain.TagQuery) (int64, error) {
	return int64(len(r.filter(q))), nil
}

func (r memTags) Delete(ctx context.Context, id uuid.UUID) error {
	n, _ := r.DeleteMany(ctx, []uuid.UUID{id})
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r memTags) DeleteMany(_ context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	r.m.tags = slices.DeleteFunc(r.m.tags, func(t domain.Tag) bool {
		if slices.Contains(ids, t.ID) {
			n++
			return true
		}
		return false
	})
	r.m.links = slices.DeleteFunc(r.m.links, func(l link) bool { return slices.Contains(ids, l.tagID) })
	return n, nil
}

func (r memTags) DeleteIfUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	if r.m.usage(id) > 0 {
		return false, nil
	}
	n, err := r.DeleteMany(ctx, []uuid.UUID{id})
	return n > 0, err
}

// ---- TaggableRepo ----------------------------------------------------------

type memLinks struct{ m *memStore }

func (r memLinks) Exists(_ context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error) {
	return slices.Contains(r.m.links, link{ref, tagID}), nil
}

func (r memLinks) Attach(ctx context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error) {
	if r.m.attachErr != nil {
		return false, r.m.attachErr
	}
	if ok, _ := r.Exists(ctx, ref, tagID); ok {
		return false, nil
	}
	r.m.links = append(r.m.links, link{ref, tagID})
	return true, nil
}

func (r memLinks) Detach(_ context.Context, ref domain.TaggableRef, tagIDs ...uuid.UUID) (int64, error) {
	var n int64
	r.m.links = slices.DeleteFunc(r.m.links, func(l link) bool {
		if l.ref == ref && slices.Contains(tagIDs, l.tagID) {
			n++
			return true
		}
		return false
	})
	return n, nil
}

func (r memLinks) ListTags(_ context.Context, ref domain.TaggableRef, q domain.TagQuery) ([]domain.Tag, error) {
	out := []domain.Tag{}
	for _, l := range r.m.links {
		if l.ref != ref {
			continue
		}
		if t, ok := r.m.byID(l.tagID); ok && r.m.matches(t, q, false) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Slug != out[j].Slug {
			return out[i].Slug < out[j].Slug
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memLinks) CountTags(ctx context.Context, ref domain.TaggableRef, q domain.TagQuery) (int64, error) {
	tags, _ := r.ListTags(ctx, ref, q)
	return int64(len(tags)), nil
}

func (r memLinks) CountDistinctSlugs(ctx context.Context, ref domain.TaggableRef, q domain.TagQuery) (int64, error) {
	tags, _ := r.ListTags(ctx, ref, q)
	seen := map[string]bool{}
	for _, t := range tags {
		seen[t.Slug] = true
	}
	return int64(len(seen)), nil
}

func (r memLinks) CountFor(_ context.Context, tagID uuid.UUID) (int64, error) {
	return r.m.usage(tagID), nil
}

func (r memLinks) DeleteAll(_ context.Context, ref domain.TaggableRef) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	r.m.links = slices.DeleteFunc(r.m.links, func(l link) bool {
		if l.ref == ref {
			ids = append(ids, l.tagID)
			return true
		}
		return false
	})
	return ids, nil
}

func (r memLinks) Match(ctx context.Context, taggableType string, candidates []string, mb domain.Membership) ([]string, error) {
	if candidates == nil {
		seen := map[string]bool{}
		for _, l := range r.m.links {
			if l.ref.Type == taggableType && !seen[l.ref.ID] {
				seen[l.ref.ID] = true
				candidates = append(candidates, l.ref.ID)
			}
		}
		sort.Strings(candidates)
	}

	out := []string{}
	for _, id := range candidates {
		tags, _ := r.ListTags(ctx, domain.TaggableRef{Type: taggableType, ID: id}, mb.Tags)
		have := map[string]bool{}
		for _, t := range tags {
			have[t.Slug] = true
		}

		var keep bool
		switch {
		case mb.Slugs == nil:
			keep = (len(tags) > 0) != (mb.Mode == domain.MatchNone)
		case mb.Mode == domain.MatchAny:
			keep = slices.ContainsFunc(mb.Slugs, func(s string) bool { return have[s] })
		case mb.Mode == domain.MatchNone:
			keep = !slices.ContainsFunc(mb.Slugs, func(s string) bool { return have[s] })
		case mb.Mode == domain.MatchAll:
			keep = !slices.ContainsFunc(mb.Slugs, func(s string) bool { return !have[s] })
		}
		if keep {
			out = append(out, id)
		}
	}
	return out, nil
}

var (
	_ repo.TagRepo      = memTags{}
	_ repo.TaggableRepo = memLinks{}
)
