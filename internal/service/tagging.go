package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/event"
	"github.com/pkordes/taggable/internal/repo"
)

// TaggingService implements the per-entity tagging operations. Every
// mutation runs in one store transaction; its events are dispatched only
// after that transaction commits.
type TaggingService struct {
	store  Store
	events event.Dispatcher
	opts   Options
}

// NewTaggingService constructs a TaggingService. A nil dispatcher discards events.
func NewTaggingService(store Store, events event.Dispatcher, opts Options) *TaggingService {
	if events == nil {
		events = event.Discard
	}
	return &TaggingService{store: store, events: events, opts: opts}
}

// mutate runs fn in a transaction and dispatches the events it collected.
func (s *TaggingService) mutate(ctx context.Context, op string, fn func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error)) error {
	var events []event.Event
	err := s.store.InTx(ctx, func(tags repo.TagRepo, links repo.TaggableRepo) error {
		var err error
		events, err = fn(tags, links)
		return err
	})
	if err != nil {
		return fmt.Errorf("service.TaggingService.%s: %w", op, err)
	}
	s.events.Dispatch(ctx, events...)
	return nil
}

// Tag resolves each name with find-or-create and links the tags the entity
// does not carry yet, raising one TagAttached per new link. Tags already on
// the entity are skipped silently. Empty names are a no-op.
func (s *TaggingService) Tag(ctx context.Context, ref domain.TaggableRef, names Names, sc Scope) error {
	names = names.clean()
	if len(names) == 0 {
		return nil
	}
	return s.mutate(ctx, "Tag", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		return s.tag(ctx, tags, links, ref, names, sc)
	})
}

// TagAsUser is Tag with tags owned by userID.
func (s *TaggingService) TagAsUser(ctx context.Context, ref domain.TaggableRef, names Names, userID int64, typ *string) error {
	return s.Tag(ctx, ref, names, Scope{Type: typ, UserID: &userID})
}

func (s *TaggingService) tag(ctx context.Context, tags repo.TagRepo, links repo.TaggableRepo, ref domain.TaggableRef, names Names, sc Scope) ([]event.Event, error) {
	resolved, err := findOrCreateMany(ctx, tags, s.opts, names, sc.Type, sc.UserID)
	if err != nil {
		return nil, err
	}
	var events []event.Event
	for _, tag := range resolved {
		added, err := attach(ctx, links, ref, tag.ID)
		if err != nil {
			return nil, err
		}
		if added {
			events = append(events, event.TagAttached{Taggable: ref, Tag: tag})
		}
	}
	return events, nil
}

// Untag removes tags from the entity, raising one TagDetached per removed link.
//
// With nil names every tag on the entity matching sc is removed. With names,
// only tags whose slug matches one of them (and sc) are removed; an empty
// non-nil list removes nothing. sc filters are exact: a user id never
// matches global tags here.
func (s *TaggingService) Untag(ctx context.Context, ref domain.TaggableRef, names Names, sc Scope) error {
	names = names.clean()
	if names != nil && len(names) == 0 {
		return nil
	}
	return s.mutate(ctx, "Untag", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		return s.untag(ctx, tags, links, ref, names, sc)
	})
}

// UntagAsUser is Untag restricted to tags owned by userID.
func (s *TaggingService) UntagAsUser(ctx context.Context, ref domain.TaggableRef, names Names, userID int64, typ *string) error {
	return s.Untag(ctx, ref, names, Scope{Type: typ, UserID: &userID})
}

func (s *TaggingService) untag(ctx context.Context, tags repo.TagRepo, links repo.TaggableRepo, ref domain.TaggableRef, names Names, sc Scope) ([]event.Event, error) {
	q := s.opts.exact(domain.TagQuery{Type: normType(sc.Type)}, sc.UserID)
	if names != nil {
		q.Slugs = s.opts.slugs(names)
		if len(q.Slugs) == 0 {
			return nil, nil
		}
	}

	current, err := links.ListTags(ctx, ref, q)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, nil
	}

	ids := tagIDs(current)
	if _, err := links.Detach(ctx, ref, ids...); err != nil {
		return nil, err
	}
	if err := s.prune(ctx, tags, ids); err != nil {
		return nil, err
	}

	events := make([]event.Event, len(current))
	for i, tag := range current {
		events[i] = event.TagDetached{Taggable: ref, Tag: tag}
	}
	return events, nil
}

// Retag removes every tag matching sc and then tags the entity with names,
// all in one transaction.
func (s *TaggingService) Retag(ctx context.Context, ref domain.TaggableRef, names Names, sc Scope) error {
	names = names.clean()
	return s.mutate(ctx, "Retag", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		detached, err := s.untag(ctx, tags, links, ref, nil, sc)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return detached, nil
		}
		attached, err := s.tag(ctx, tags, links, ref, names, sc)
		if err != nil {
			return nil, err
		}
		return append(detached, attached...), nil
	})
}

// Sync makes the entity's tags matching sc exactly the tags named. Missing
// tags are created and linked, extra ones unlinked, and a single TagsSynced
// carrying the resulting set is raised; no attach or detach events are.
func (s *TaggingService) Sync(ctx context.Context, ref domain.TaggableRef, names Names, sc Scope) error {
	names = names.clean()
	return s.mutate(ctx, "Sync", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		resolved, err := findOrCreateMany(ctx, tags, s.opts, names, sc.Type, sc.UserID)
		if err != nil {
			return nil, err
		}
		target := uniqueTags(resolved)

		current, err := links.ListTags(ctx, ref, s.opts.exact(domain.TagQuery{Type: normType(sc.Type)}, sc.UserID))
		if err != nil {
			return nil, err
		}

		want := idSet(target)
		have := idSet(current)

		var detach []uuid.UUID
		for _, tag := range current {
			if !want[tag.ID] {
				detach = append(detach, tag.ID)
			}
		}
		if _, err := links.Detach(ctx, ref, detach...); err != nil {
			return nil, err
		}

		for _, tag := range target {
			if have[tag.ID] {
				continue
			}
			if _, err := links.Attach(ctx, ref, tag.ID); err != nil {
				return nil, err
			}
		}

		if err := s.prune(ctx, tags, detach); err != nil {
			return nil, err
		}
		return []event.Event{event.TagsSynced{Taggable: ref, Tags: target}}, nil
	})
}

// SyncAsUser is Sync restricted to tags owned by userID.
func (s *TaggingService) SyncAsUser(ctx context.Context, ref domain.TaggableRef, names Names, userID int64, typ *string) error {
	return s.Sync(ctx, ref, names, Scope{Type: typ, UserID: &userID})
}

// AttachTag links an already resolved tag. A nil or unsaved tag is a no-op.
func (s *TaggingService) AttachTag(ctx context.Context, ref domain.TaggableRef, tag *domain.Tag) error {
	if !tag.IsResolved() {
		return nil
	}
	return s.mutate(ctx, "AttachTag", func(_ repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		added, err := attach(ctx, links, ref, tag.ID)
		if err != nil || !added {
			return nil, err
		}
		return []event.Event{event.TagAttached{Taggable: ref, Tag: *tag}}, nil
	})
}

// DetachTag unlinks a resolved tag. A nil or unsaved tag, or a tag the entity
// does not carry, is a no-op.
func (s *TaggingService) DetachTag(ctx context.Context, ref domain.TaggableRef, tag *domain.Tag) error {
	if !tag.IsResolved() {
		return nil
	}
	return s.mutate(ctx, "DetachTag", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		n, err := links.Detach(ctx, ref, tag.ID)
		if err != nil || n == 0 {
			return nil, err
		}
		if err := s.prune(ctx, tags, []uuid.UUID{tag.ID}); err != nil {
			return nil, err
		}
		return []event.Event{event.TagDetached{Taggable: ref, Tag: *tag}}, nil
	})
}

// Purge removes every association of an entity that is being deleted and
// returns how many there were. No events are raised.
func (s *TaggingService) Purge(ctx context.Context, ref domain.TaggableRef) (int, error) {
	var n int
	err := s.mutate(ctx, "Purge", func(tags repo.TagRepo, links repo.TaggableRepo) ([]event.Event, error) {
		ids, err := links.DeleteAll(ctx, ref)
		if err != nil {
			return nil, err
		}
		n = len(ids)
		return nil, s.prune(ctx, tags, ids)
	})
	return n, err
}

// prune deletes tags left without associations when DeleteUnusedTags is on.
func (s *TaggingService) prune(ctx context.Context, tags repo.TagRepo, ids []uuid.UUID) error {
	if !s.opts.DeleteUnusedTags {
		return nil
	}
	for _, id := range ids {
		if _, err := tags.DeleteIfUnused(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// attach links the pair only if it is not linked yet.
func attach(ctx context.Context, links repo.TaggableRepo, ref domain.TaggableRef, tagID uuid.UUID) (bool, error) {
	exists, err := links.Exists(ctx, ref, tagID)
	if err != nil || exists {
		return false, err
	}
	return links.Attach(ctx, ref, tagID)
}

func tagIDs(tags []domain.Tag) []uuid.UUID {
	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

func idSet(tags []domain.Tag) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(tags))
	for _, t := range tags {
		set[t.ID] = true
	}
	return set
}

func uniqueTags(tags []domain.Tag) []domain.Tag {
	seen := make(map[uuid.UUID]bool, len(tags))
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
