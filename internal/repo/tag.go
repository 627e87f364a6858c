package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/taggable/internal/domain"
)

// TagRepo defines the persistence operations for the tags table.
type TagRepo interface {
	// FindExact returns the tag with this slug, owner and type. A nil userID or
	// typ matches only NULL columns, never "any".
	// Returns domain.ErrNotFound if no such tag exists.
	FindExact(ctx context.Context, slug string, userID *int64, typ *string) (domain.Tag, error)

	// Insert creates a tag and returns the persisted row.
	// Returns domain.ErrConflict if a tag with the same (slug, user_id, type)
	// already exists, e.g. because a concurrent caller inserted it first.
	Insert(ctx context.Context, tag domain.Tag) (domain.Tag, error)

	// GetByID retrieves a single tag. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error)

	// Query returns tags matching q together with their association counts.
	Query(ctx context.Context, q domain.TagQuery) ([]domain.TagUsage, error)

	// Count returns the number of tags matching q, ignoring Limit and Offset.
	Count(ctx context.Context, q domain.TagQuery) (int64, error)

	// Delete removes a tag and, by cascade, its associations.
	// Returns domain.ErrNotFound if the tag does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteMany removes the given tags and returns how many rows were deleted.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)

	// DeleteIfUnused removes the tag only when no association references it.
	// Reports whether a row was deleted.
	DeleteIfUnused(ctx context.Context, id uuid.UUID) (bool, error)
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db        db
	tags      string
	taggables string
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
func NewTagRepo(db db, tables Tables) TagRepo {
	tags, taggables := tables.quoted()
	return &pgTagRepo{db: db, tags: tags, taggables: taggables}
}

const tagColumns = `t.id, t.name, t.slug, t.user_id, t.type, t.created_at, t.updated_at`

// FindExact uses IS NOT DISTINCT FROM so NULL owner and type compare equal,
// matching the NULLS NOT DISTINCT unique constraint.
func (r *pgTagRepo) FindExact(ctx context.Context, slug string, userID *int64, typ *string) (domain.Tag, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM %s t
		WHERE t.slug = @slug
		  AND t.user_id IS NOT DISTINCT FROM @user_id::bigint
		  AND t.type IS NOT DISTINCT FROM @type::text`, tagColumns, r.tags)

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug, "user_id": userID, "type": typ})
	tag, err := scanTag(row)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.FindExact: %w", err)
	}
	return tag, nil
}

// Insert relies on ON CONFLICT DO NOTHING so a lost race produces no row
// rather than an error that would abort the surrounding transaction.
func (r *pgTagRepo) Insert(ctx context.Context, tag domain.Tag) (domain.Tag, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s AS t (name, slug, user_id, type)
		VALUES (@name, @slug, @user_id, @type)
		ON CONFLICT DO NOTHING
		RETURNING %s`, r.tags, tagColumns)

	args := pgx.NamedArgs{
		"name":    tag.Name,
		"slug":    tag.Slug,
		"user_id": tag.UserID, // nil becomes NULL
		"type":    tag.Type,
	}

	result, err := scanTag(r.db.QueryRow(ctx, q, args))
	switch {
	case errors.Is(err, domain.ErrNotFound), isUniqueViolation(err):
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Insert: %w", domain.ErrConflict)
	case err != nil:
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Insert: %w", err)
	}
	return result, nil
}

// GetByID retrieves a tag by primary key.
func (r *pgTagRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s t WHERE t.id = @id`, tagColumns, r.tags)

	tag, err := scanTag(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByID: %w", err)
	}
	return tag, nil
}

// Query orders by slug by default, or by usage count descending when
// ByPopularity is set. Ties fall back to creation order so results are stable.
func (r *pgTagRepo) Query(ctx context.Context, tq domain.TagQuery) ([]domain.TagUsage, error) {
	args := pgx.NamedArgs{}
	conds := tagConditions(tq, r.taggables, args, false)

	order := `t.slug, t.created_at, t.id`
	if tq.ByPopularity {
		order = `usage DESC, t.created_at, t.id`
	}

	q := fmt.Sprintf(`
		SELECT %s,
		       (SELECT count(*) FROM %s tg WHERE tg.tag_id = t.id) AS usage
		FROM %s t%s
		ORDER BY %s`, tagColumns, r.taggables, r.tags, where(conds), order)

	if tq.Limit > 0 {
		q += ` LIMIT @limit`
		args["limit"] = tq.Limit
	}
	if tq.Offset > 0 {
		q += ` OFFSET @offset`
		args["offset"] = tq.Offset
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.Query: %w", err)
	}
	defer rows.Close()

	usages := []domain.TagUsage{}
	for rows.Next() {
		u, err := scanTagUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TagRepo.Query: scan: %w", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TagRepo.Query: rows: %w", err)
	}
	return usages, nil
}

// Count returns the size of the unpaged result set for q.
func (r *pgTagRepo) Count(ctx context.Context, tq domain.TagQuery) (int64, error) {
	args := pgx.NamedArgs{}
	conds := tagConditions(tq, r.taggables, args, false)

	q := fmt.Sprintf(`SELECT count(*) FROM %s t%s`, r.tags, where(conds))

	var n int64
	if err := r.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TagRepo.Count: %w", err)
	}
	return n, nil
}

// Delete removes a tag by primary key.
func (r *pgTagRepo) Delete(ctx context.Context, id uuid.UUID) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = @id`, r.tags)

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TagRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TagRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes every tag whose id is in ids.
func (r *pgTagRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY(@ids)`, r.tags)

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return 0, fmt.Errorf("repo.TagRepo.DeleteMany: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteIfUnused checks for associations in the same statement as the delete.
func (r *pgTagRepo) DeleteIfUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	q := fmt.Sprintf(`
		DELETE FROM %s t
		WHERE t.id = @id
		  AND NOT EXISTS (SELECT 1 FROM %s tg WHERE tg.tag_id = t.id)`, r.tags, r.taggables)

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return false, fmt.Errorf("repo.TagRepo.DeleteIfUnused: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanTag maps a single database row into a domain.Tag.
// It handles the UUID and the nullable user_id and type conversions.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t      domain.Tag
		id     pgtype.UUID
		userID pgtype.Int8
		typ    pgtype.Text
	)
	err := s.Scan(&id, &t.Name, &t.Slug, &userID, &typ, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	fillTag(&t, id, userID, typ)
	return t, nil
}

// scanTagUsage is scanTag with a trailing association count column.
func scanTagUsage(s scanner) (domain.TagUsage, error) {
	var (
		u      domain.TagUsage
		id     pgtype.UUID
		userID pgtype.Int8
		typ    pgtype.Text
	)
	err := s.Scan(&id, &u.Name, &u.Slug, &userID, &typ, &u.CreatedAt, &u.UpdatedAt, &u.Count)
	if err != nil {
		return domain.TagUsage{}, err
	}
	fillTag(&u.Tag, id, userID, typ)
	return u, nil
}

func fillTag(t *domain.Tag, id pgtype.UUID, userID pgtype.Int8, typ pgtype.Text) {
	t.ID = uuid.UUID(id.Bytes)
	if userID.Valid {
		v := userID.Int64
		t.UserID = &v
	}
	if typ.Valid {
		v := typ.String
		t.Type = &v
	}
}
