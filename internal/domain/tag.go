// Package domain contains the core data types for the taggable library.
// This package has no dependencies on the store or transport layers and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a named label that can be attached to any taggable entity.
// UserID is nil for a global tag. Type is nil for an untyped tag.
// Identity is the (Slug, UserID, Type) triple; Slug is derived from Name once,
// when the tag is created, and never recomputed.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UserID    *int64    `json:"user_id,omitempty"`
	Type      *string   `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGlobal reports whether the tag has no owning user.
func (t Tag) IsGlobal() bool {
	return t.UserID == nil
}

// IsOwnedBy reports whether the tag belongs to userID.
func (t Tag) IsOwnedBy(userID int64) bool {
	return t.UserID != nil && *t.UserID == userID
}

// IsResolved reports whether the tag was loaded from the store.
func (t *Tag) IsResolved() bool {
	return t != nil && t.ID != uuid.Nil
}

// TagUsage pairs a tag with the number of associations pointing at it.
type TagUsage struct {
	Tag
	Count int64 `json:"count"`
}

// CloudTag is a TagUsage scaled onto the 0-10 tag cloud weight range.
type CloudTag struct {
	TagUsage
	Weight int `json:"weight"`
}

// UserID returns a pointer to id, for optional user arguments.
func UserID(id int64) *int64 {
	return &id
}

// TagType returns a pointer to t, for optional type arguments.
func TagType(t string) *string {
	return &t
}
