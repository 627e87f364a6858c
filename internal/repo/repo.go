// Package repo contains all database access logic for taggable.
// Each store has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/taggable/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. Begin on a pgx.Tx opens a
// savepoint, so InTx nests cleanly inside a test transaction.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tables names the tags table and the polymorphic association table.
type Tables struct {
	Tags      string
	Taggables string
}

// DefaultTables are the names created by the bundled migrations.
var DefaultTables = Tables{Tags: "tags", Taggables: "taggables"}

// quoted returns both table names as sanitized SQL identifiers.
func (t Tables) quoted() (tags, taggables string) {
	return pgx.Identifier{t.Tags}.Sanitize(), pgx.Identifier{t.Taggables}.Sanitize()
}

// Store bundles the two repos over one connection and runs multi-statement
// operations inside a transaction.
type Store struct {
	db     db
	tables Tables
}

// NewStore constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStore(db db, tables Tables) *Store {
	return &Store{db: db, tables: tables}
}

// Tags returns a TagRepo on the store's connection.
func (s *Store) Tags() TagRepo {
	return NewTagRepo(s.db, s.tables)
}

// Taggables returns a TaggableRepo on the store's connection.
func (s *Store) Taggables() TaggableRepo {
	return NewTaggableRepo(s.db, s.tables)
}

// InTx runs fn with repos bound to a single transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tags TagRepo, taggables TaggableRepo) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewTagRepo(tx, s.tables), NewTaggableRepo(tx, s.tables))
	})
	if err != nil {
		return fmt.Errorf("repo.Store.InTx: %w", err)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// tagConditions translates the filter fields of q into WHERE fragments against
// the tags table aliased as t. Named arguments are added to args.
// Slugs are skipped when skipSlugs is set so callers can match slugs themselves.
func tagConditions(q domain.TagQuery, taggables string, args pgx.NamedArgs, skipSlugs bool) []string {
	var conds []string

	switch q.Owner {
	case domain.OwnerExact:
		conds = append(conds, `t.user_id = @owner_id`)
		args["owner_id"] = q.UserID
	case domain.OwnerMixed:
		conds = append(conds, `(t.user_id = @owner_id OR t.user_id IS NULL)`)
		args["owner_id"] = q.UserID
	case domain.OwnerGlobal:
		conds = append(conds, `t.user_id IS NULL`)
	}

	if q.Type != nil {
		conds = append(conds, `t.type = @tag_type`)
		args["tag_type"] = *q.Type
	}

	if len(q.Slugs) > 0 && !skipSlugs {
		conds = append(conds, `t.slug = ANY(@slugs)`)
		args["slugs"] = q.Slugs
	}

	if q.Search != "" {
		conds = append(conds, `(t.name ILIKE @search OR t.slug ILIKE @search)`)
		args["search"] = "%" + escapeLike(q.Search) + "%"
	}

	if q.UnusedOnly {
		conds = append(conds, fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM %s u WHERE u.tag_id = t.id)`, taggables))
	}

	return conds
}

// where joins conditions into a WHERE clause, or returns "" when there are none.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// escapeLike escapes the LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
