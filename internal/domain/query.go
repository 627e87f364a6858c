package domain

// Ownership selects which owners' tags a query can see.
type Ownership int

const (
	// AnyOwner applies no user filter; user and global tags all match.
	AnyOwner Ownership = iota
	// OwnerExact matches tags where user_id equals TagQuery.UserID.
	OwnerExact
	// OwnerMixed matches the user's tags and global tags.
	OwnerMixed
	// OwnerGlobal matches global tags only.
	OwnerGlobal
)

// TagQuery is a composable set of predicates over the tags table.
// Zero values mean "no filter" for every field.
type TagQuery struct {
	Owner  Ownership
	UserID int64

	// Type restricts to tags of exactly this type when non-nil.
	Type *string

	// Slugs restricts to tags whose slug is in the set when non-empty.
	Slugs []string

	// Search is a case-insensitive substring matched against name or slug.
	Search string

	// UnusedOnly restricts to tags with zero associations.
	UnusedOnly bool

	// ByPopularity orders by association count descending instead of by slug.
	ByPopularity bool

	Limit  int
	Offset int
}

// ForUser returns q scoped to userID's own tags.
func (q TagQuery) ForUser(userID int64) TagQuery {
	q.Owner, q.UserID = OwnerExact, userID
	return q
}

// ForUserWithGlobal returns q scoped to userID's tags plus global tags.
func (q TagQuery) ForUserWithGlobal(userID int64) TagQuery {
	q.Owner, q.UserID = OwnerMixed, userID
	return q
}

// Global returns q scoped to global tags.
func (q TagQuery) Global() TagQuery {
	q.Owner, q.UserID = OwnerGlobal, 0
	return q
}

// WithType returns q restricted to tags of type t.
func (q TagQuery) WithType(t string) TagQuery {
	q.Type = &t
	return q
}

// Containing returns q restricted to tags whose name or slug contains s.
func (q TagQuery) Containing(s string) TagQuery {
	q.Search = s
	return q
}
