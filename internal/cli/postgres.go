package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/taggable/internal/config"
	"github.com/pkordes/taggable/internal/repo"
	"github.com/pkordes/taggable/internal/service"
	"github.com/pkordes/taggable/migrations"
)

// Postgres is the Opener used outside tests.
type Postgres struct{}

// Cleaner opens a pool on cfg.DatabaseURL and returns a TagService over it.
func (Postgres) Cleaner(ctx context.Context, cfg config.Config) (Cleaner, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := repo.NewStore(pool, repo.Tables(cfg.Tables))
	return service.NewTagService(store, service.OptionsFromConfig(cfg)), pool.Close, nil
}

// Migrator opens cfg.DatabaseURL through database/sql and returns a goose
// provider over the embedded migrations.
func (Postgres) Migrator(ctx context.Context, cfg config.Config) (Migrator, func(), error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load migrations: %w", err)
	}
	return p, func() { _ = db.Close() }, nil
}
