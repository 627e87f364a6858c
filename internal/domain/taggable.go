package domain

// TaggableRef identifies one tagged entity. Type discriminates the entity kind
// (e.g. "post", "photo") and ID is the entity's key in the host application,
// stored as an opaque string so integer and UUID keys both fit.
type TaggableRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// MatchMode selects how a Membership compares an entity's tags to a slug set.
type MatchMode int

const (
	// MatchAny keeps entities carrying at least one of the slugs.
	MatchAny MatchMode = iota
	// MatchAll keeps entities carrying every one of the slugs.
	MatchAll
	// MatchNone keeps entities carrying none of the slugs.
	MatchNone
)

// Membership is a tag-set predicate evaluated against a collection of entities.
// Tags narrows which tag rows count toward a match; its Slugs field is ignored
// in favour of the Slugs listed here. Nil Slugs means any tag passing Tags,
// while an empty non-nil Slugs matches no tag at all.
type Membership struct {
	Mode  MatchMode
	Slugs []string
	Tags  TagQuery
}
