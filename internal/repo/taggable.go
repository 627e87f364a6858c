package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/taggable/internal/domain"
)

// TaggableRepo defines the persistence operations for the polymorphic
// association table linking taggable entities to tags.
type TaggableRepo interface {
	// Exists reports whether the entity already carries the tag.
	Exists(ctx context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error)

	// Attach links a tag to an entity. Idempotent — reports false and no error
	// if the pair was already linked.
	Attach(ctx context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error)

	// Detach unlinks the given tags from an entity and returns how many links
	// were removed. Missing links are ignored.
	Detach(ctx context.Context, ref domain.TaggableRef, tagIDs ...uuid.UUID) (int64, error)

	// ListTags returns the entity's tags matching q, ordered by slug.
	ListTags(ctx context.Context, ref domain.TaggableRef, q domain.TagQuery) ([]domain.Tag, error)

	// CountTags returns how many of the entity's tags match q.
	CountTags(ctx context.Context, ref domain.TaggableRef, q domain.TagQuery) (int64, error)

	// CountDistinctSlugs returns how many different slugs among the entity's
	// tags match q. A user tag and a global tag sharing a slug count once.
	CountDistinctSlugs(ctx context.Context, ref domain.TaggableRef, q domain.TagQuery) (int64, error)

	// CountFor returns the number of entities carrying the tag.
	CountFor(ctx context.Context, tagID uuid.UUID) (int64, error)

	// DeleteAll removes every link of an entity and returns the ids of the
	// tags it carried. Hosts call this when the entity itself is deleted.
	DeleteAll(ctx context.Context, ref domain.TaggableRef) ([]uuid.UUID, error)

	// Match filters entity ids of taggableType by a tag-set predicate,
	// preserving the order of candidates. A nil candidates slice means every
	// entity of that type that has at least one association.
	Match(ctx context.Context, taggableType string, candidates []string, m domain.Membership) ([]string, error)
}

// pgTaggableRepo is the Postgres implementation of TaggableRepo.
type pgTaggableRepo struct {
	db        db
	tags      string
	taggables string
}

// NewTaggableRepo constructs a TaggableRepo backed by the provided db connection.
func NewTaggableRepo(db db, tables Tables) TaggableRepo {
	tags, taggables := tables.quoted()
	return &pgTaggableRepo{db: db, tags: tags, taggables: taggables}
}

func refArgs(ref domain.TaggableRef) pgx.NamedArgs {
	return pgx.NamedArgs{"taggable_type": ref.Type, "taggable_id": ref.ID}
}

// Exists checks the pair before an insert so callers can skip side effects.
func (r *pgTaggableRepo) Exists(ctx context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error) {
	q := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE tag_id = @tag_id
			  AND taggable_type = @taggable_type
			  AND taggable_id = @taggable_id
		)`, r.taggables)

	args := refArgs(ref)
	args["tag_id"] = tagID

	var exists bool
	if err := r.db.QueryRow(ctx, q, args).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.TaggableRepo.Exists: %w", err)
	}
	return exists, nil
}

// Attach is idempotent via ON CONFLICT DO NOTHING.
func (r *pgTaggableRepo) Attach(ctx context.Context, ref domain.TaggableRef, tagID uuid.UUID) (bool, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (tag_id, taggable_type, taggable_id)
		VALUES (@tag_id, @taggable_type, @taggable_id)
		ON CONFLICT (tag_id, taggable_type, taggable_id) DO NOTHING`, r.taggables)

	args := refArgs(ref)
	args["tag_id"] = tagID

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return false, fmt.Errorf("repo.TaggableRepo.Attach: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Detach removes links in one statement.
func (r *pgTaggableRepo) Detach(ctx context.Context, ref domain.TaggableRef, tagIDs ...uuid.UUID) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf(`
		DELETE FROM %s
		WHERE taggable_type = @taggable_type
		  AND taggable_id = @taggable_id
		  AND tag_id = ANY(@tag_ids)`, r.taggables)

	args := refArgs(ref)
	args["tag_ids"] = tagIDs

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return 0, fmt.Errorf("repo.TaggableRepo.Detach: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListTags joins through the association table and applies q to the tag side.
func (r *pgTaggableRepo) ListTags(ctx context.Context, ref domain.TaggableRef, tq domain.TagQuery) ([]domain.Tag, error) {
	args := refArgs(ref)
	conds := append([]string{
		`tg.taggable_type = @taggable_type`,
		`tg.taggable_id = @taggable_id`,
	}, tagConditions(tq, r.taggables, args, false)...)

	q := fmt.Sprintf(`
		SELECT %s
		FROM %s t
		JOIN %s tg ON tg.tag_id = t.id%s
		ORDER BY t.slug, t.created_at, t.id`, tagColumns, r.tags, r.taggables, where(conds))

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.ListTags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TaggableRepo.ListTags: scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.ListTags: rows: %w", err)
	}
	return tags, nil
}

// CountTags counts matching links without loading the tags.
func (r *pgTaggableRepo) CountTags(ctx context.Context, ref domain.TaggableRef, tq domain.TagQuery) (int64, error) {
	n, err := r.countJoined(ctx, `count(*)`, ref, tq)
	if err != nil {
		return 0, fmt.Errorf("repo.TaggableRepo.CountTags: %w", err)
	}
	return n, nil
}

// CountDistinctSlugs backs the has-all-tags check.
func (r *pgTaggableRepo) CountDistinctSlugs(ctx context.Context, ref domain.TaggableRef, tq domain.TagQuery) (int64, error) {
	n, err := r.countJoined(ctx, `count(DISTINCT t.slug)`, ref, tq)
	if err != nil {
		return 0, fmt.Errorf("repo.TaggableRepo.CountDistinctSlugs: %w", err)
	}
	return n, nil
}

func (r *pgTaggableRepo) countJoined(ctx context.Context, agg string, ref domain.TaggableRef, tq domain.TagQuery) (int64, error) {
	args := refArgs(ref)
	conds := append([]string{
		`tg.taggable_type = @taggable_type`,
		`tg.taggable_id = @taggable_id`,
	}, tagConditions(tq, r.taggables, args, false)...)

	q := fmt.Sprintf(`
		SELECT %s
		FROM %s t
		JOIN %s tg ON tg.tag_id = t.id%s`, agg, r.tags, r.taggables, where(conds))

	var n int64
	if err := r.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountFor returns the association count of a single tag.
func (r *pgTaggableRepo) CountFor(ctx context.Context, tagID uuid.UUID) (int64, error) {
	q := fmt.Sprintf(`SELECT count(*) FROM %s WHERE tag_id = @tag_id`, r.taggables)

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"tag_id": tagID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TaggableRepo.CountFor: %w", err)
	}
	return n, nil
}

// DeleteAll removes the entity's links and reports which tags they pointed to.
func (r *pgTaggableRepo) DeleteAll(ctx context.Context, ref domain.TaggableRef) ([]uuid.UUID, error) {
	q := fmt.Sprintf(`
		DELETE FROM %s
		WHERE taggable_type = @taggable_type
		  AND taggable_id = @taggable_id
		RETURNING tag_id`, r.taggables)

	rows, err := r.db.Query(ctx, q, refArgs(ref))
	if err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.DeleteAll: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.UUID])
	if err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.DeleteAll: %w", err)
	}
	ids := make([]uuid.UUID, len(raw))
	for i, id := range raw {
		ids[i] = uuid.UUID(id.Bytes)
	}
	return ids, nil
}

// Match evaluates the membership predicate as EXISTS subqueries against each
// candidate id. MatchAll is an AND of one EXISTS per slug. With nil Slugs any
// tag passing m.Tags counts.
func (r *pgTaggableRepo) Match(ctx context.Context, taggableType string, candidates []string, m domain.Membership) ([]string, error) {
	args := pgx.NamedArgs{"taggable_type": taggableType}

	var from string
	if candidates == nil {
		from = fmt.Sprintf(`(SELECT DISTINCT taggable_id AS id, 0::bigint AS ord FROM %s WHERE taggable_type = @taggable_type) c`, r.taggables)
	} else {
		from = `unnest(@candidates::text[]) WITH ORDINALITY AS c(id, ord)`
		args["candidates"] = candidates
	}

	tagConds := tagConditions(m.Tags, r.taggables, args, true)
	exists := func(slugCond string) string {
		conds := []string{
			`tg.taggable_type = @taggable_type`,
			`tg.taggable_id = c.id`,
		}
		if slugCond != "" {
			conds = append(conds, slugCond)
		}
		conds = append(conds, tagConds...)
		return fmt.Sprintf(`EXISTS (SELECT 1 FROM %s tg JOIN %s t ON t.id = tg.tag_id%s)`,
			r.taggables, r.tags, where(conds))
	}

	var conds []string
	switch {
	case m.Slugs == nil && m.Mode == domain.MatchNone:
		conds = append(conds, `NOT `+exists(""))
	case m.Slugs == nil:
		conds = append(conds, exists(""))
	case m.Mode == domain.MatchAny:
		conds = append(conds, exists(`t.slug = ANY(@slugs)`))
		args["slugs"] = m.Slugs
	case m.Mode == domain.MatchNone:
		conds = append(conds, `NOT `+exists(`t.slug = ANY(@slugs)`))
		args["slugs"] = m.Slugs
	case m.Mode == domain.MatchAll:
		for i, s := range m.Slugs {
			key := fmt.Sprintf("slug_%d", i)
			conds = append(conds, exists(`t.slug = @`+key))
			args[key] = s
		}
	default:
		return nil, fmt.Errorf("repo.TaggableRepo.Match: unknown match mode %d", m.Mode)
	}

	q := fmt.Sprintf(`SELECT c.id FROM %s%s ORDER BY c.ord, c.id`, from, where(conds))

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.Match: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.TaggableRepo.Match: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
