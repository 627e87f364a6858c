package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.migrateRun(cmd, "up")
		},
	}

	for _, sub := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the most recent migration"},
		{"status", "Show which migrations are applied"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.migrateRun(cmd, sub.use)
			},
		})
	}
	return cmd
}

func (a *app) migrateRun(cmd *cobra.Command, direction string) error {
	ctx := cmd.Context()

	m, closeFn, err := a.open.Migrator(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	defer closeFn()

	switch direction {
	case "up":
		results, err := m.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if len(results) == 0 {
			a.ui.Info("No migrations to apply.")
			return nil
		}
		for _, r := range results {
			a.ui.Success("Applied %s (%s)", migrationName(r.Source), r.Duration.Round(time.Millisecond))
		}
	case "down":
		r, err := m.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			a.ui.Info("No migrations to roll back.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		a.ui.Success("Rolled back %s", migrationName(r.Source))
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		table := a.ui.Table([]string{"Version", "Migration", "State", "Applied At"})
		for _, s := range statuses {
			applied := ""
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			if err := table.Append([]string{
				fmt.Sprintf("%d", s.Source.Version),
				migrationName(s.Source),
				string(s.State),
				applied,
			}); err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
		}
		return table.Render()
	}
	return nil
}

func migrationName(s *goose.Source) string {
	if s == nil {
		return "unknown"
	}
	return filepath.Base(s.Path)
}
