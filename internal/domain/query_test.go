package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/taggable/internal/domain"
)

func TestTagQuery_Ownership(t *testing.T) {
	base := domain.TagQuery{Search: "go"}

	mine := base.ForUser(7)
	assert.Equal(t, domain.OwnerExact, mine.Owner)
	assert.Equal(t, int64(7), mine.UserID)

	mixed := mine.ForUserWithGlobal(8)
	assert.Equal(t, domain.OwnerMixed, mixed.Owner)
	assert.Equal(t, int64(8), mixed.UserID)

	global := mixed.Global()
	assert.Equal(t, domain.OwnerGlobal, global.Owner)
	assert.Zero(t, global.UserID)

	assert.Equal(t, domain.AnyOwner, base.Owner, "builders return copies")
	assert.Equal(t, "go", global.Search)
}

func TestTagQuery_WithTypeAndContaining(t *testing.T) {
	q := domain.TagQuery{}.WithType("topic").Containing("rust")

	require.NotNil(t, q.Type)
	assert.Equal(t, "topic", *q.Type)
	assert.Equal(t, "rust", q.Search)
}

func TestTag_Ownership(t *testing.T) {
	global := domain.Tag{Name: "go"}
	owned := domain.Tag{Name: "go", UserID: domain.UserID(3)}

	assert.True(t, global.IsGlobal())
	assert.False(t, global.IsOwnedBy(3))
	assert.False(t, owned.IsGlobal())
	assert.True(t, owned.IsOwnedBy(3))
	assert.False(t, owned.IsOwnedBy(4))
}

func TestTag_IsResolved(t *testing.T) {
	var missing *domain.Tag
	assert.False(t, missing.IsResolved())
	assert.False(t, (&domain.Tag{Name: "new"}).IsResolved())
}
