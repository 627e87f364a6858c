// Package service contains the tagging logic for taggable.
// Services validate inputs, apply the user scoping rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/taggable/internal/config"
	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/repo"
	"github.com/pkordes/taggable/internal/slug"
)

// Store is the persistence surface the services need. *repo.Store satisfies it.
type Store interface {
	Tags() repo.TagRepo
	Taggables() repo.TaggableRepo
	InTx(ctx context.Context, fn func(tags repo.TagRepo, taggables repo.TaggableRepo) error) error
}

// Options carries the configuration every operation consults. It is resolved
// once at startup and handed to the service constructors.
type Options struct {
	// Slugger derives slugs from names. Nil means slug.Make.
	Slugger slug.Func

	// NameMaxLength is the longest accepted tag name, in characters.
	NameMaxLength int

	// MixUserAndGlobal makes a user-scoped read include global tags.
	MixUserAndGlobal bool

	// UserScopeEnabled turns on per-user tags. When false, user ids passed to
	// any operation are ignored and every tag is global.
	UserScopeEnabled bool

	// AllowGlobalTags permits creating tags without an owner while user
	// scoping is enabled.
	AllowGlobalTags bool

	// DeleteUnusedTags removes a tag once its last association is detached.
	DeleteUnusedTags bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Slugger:          slug.Make,
		NameMaxLength:    255,
		MixUserAndGlobal: true,
		UserScopeEnabled: true,
		AllowGlobalTags:  true,
	}
}

// OptionsFromConfig maps loaded configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Slugger:          slug.Make,
		NameMaxLength:    cfg.Rules.NameMaxLength,
		MixUserAndGlobal: cfg.UserScope.MixUserAndGlobal,
		UserScopeEnabled: cfg.UserScope.Enabled,
		AllowGlobalTags:  cfg.UserScope.AllowGlobalTags,
		DeleteUnusedTags: cfg.DeleteUnusedTags,
	}
}

// Scope narrows a tagging call to a tag type and/or an owning user.
// Nil fields mean "not specified".
type Scope struct {
	Type   *string
	UserID *int64
}

func (o Options) slug(name string) string {
	return slug.Or(o.Slugger)(name)
}

// slugs maps names to their distinct, non-empty slugs, preserving order.
func (o Options) slugs(names Names) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		s := o.slug(n)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// owner drops the user id when user scoping is disabled.
func (o Options) owner(userID *int64) *int64 {
	if !o.UserScopeEnabled {
		return nil
	}
	return userID
}

// scoped applies the standard scoping rule: with a user id, match that user's
// tags plus global ones when MixUserAndGlobal is set, otherwise only the
// user's; without a user id, apply no owner filter.
func (o Options) scoped(q domain.TagQuery, userID *int64) domain.TagQuery {
	userID = o.owner(userID)
	switch {
	case userID == nil:
		return q
	case o.MixUserAndGlobal:
		return q.ForUserWithGlobal(*userID)
	default:
		return q.ForUser(*userID)
	}
}

// exact filters on the user id when given, never mixing in global tags.
func (o Options) exact(q domain.TagQuery, userID *int64) domain.TagQuery {
	if userID = o.owner(userID); userID != nil {
		return q.ForUser(*userID)
	}
	return q
}

// normType treats an empty type the same as no type.
func normType(t *string) *string {
	if t == nil || *t == "" {
		return nil
	}
	return t
}

var validate = validator.New()

// validateName checks a trimmed tag name against the configured rules.
func validateName(name string, maxLen int) error {
	err := validate.Var(name, fmt.Sprintf("required,max=%d", maxLen))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return fmt.Errorf("%w: name is required", domain.ErrValidation)
		case "max":
			return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxLen)
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
}

// findOrCreate resolves a tag by (slug, owner, type), inserting it on a miss.
// If the insert loses a race to a concurrent caller, the winner is re-read.
func findOrCreate(ctx context.Context, tags repo.TagRepo, o Options, name string, typ *string, userID *int64) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name, o.NameMaxLength); err != nil {
		return domain.Tag{}, err
	}
	s := o.slug(name)
	if s == "" {
		return domain.Tag{}, fmt.Errorf("%w: name %q has no characters usable in a slug", domain.ErrValidation, name)
	}

	typ = normType(typ)
	userID = o.owner(userID)
	if userID == nil && o.UserScopeEnabled && !o.AllowGlobalTags {
		return domain.Tag{}, fmt.Errorf("%w: global tags are not allowed", domain.ErrValidation)
	}

	tag, err := tags.FindExact(ctx, s, userID, typ)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Tag{}, err
	}

	tag, err = tags.Insert(ctx, domain.Tag{Name: name, Slug: s, UserID: userID, Type: typ})
	if errors.Is(err, domain.ErrConflict) {
		tag, err = tags.FindExact(ctx, s, userID, typ)
	}
	if err != nil {
		return domain.Tag{}, err
	}
	return tag, nil
}

// findOrCreateMany resolves names in order; duplicates resolve to the same tag.
func findOrCreateMany(ctx context.Context, tags repo.TagRepo, o Options, names []string, typ *string, userID *int64) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(names))
	for _, n := range names {
		tag, err := findOrCreate(ctx, tags, o, n, typ, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}
