// Package cli builds the taggable admin command tree.
package cli

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/taggable/internal/config"
	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/output"
)

// Cleaner finds and deletes tags with no associations.
// *service.TagService satisfies it.
type Cleaner interface {
	Unused(ctx context.Context, userID *int64, globalOnly bool) ([]domain.Tag, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Migrator applies and inspects schema migrations. *goose.Provider satisfies it.
type Migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
	Down(ctx context.Context) (*goose.MigrationResult, error)
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
}

// Opener connects commands to the database described by cfg. The returned
// func releases the connection.
type Opener interface {
	Cleaner(ctx context.Context, cfg config.Config) (Cleaner, func(), error)
	Migrator(ctx context.Context, cfg config.Config) (Migrator, func(), error)
}

// app is the state shared by every command in one invocation.
type app struct {
	ui      *output.UI
	open    Opener
	cfg     config.Config
	cfgFile string
}

// NewRootCmd returns the taggable command tree writing through ui and
// connecting through open.
func NewRootCmd(ui *output.UI, open Opener) *cobra.Command {
	a := &app{ui: ui, open: open}

	root := &cobra.Command{
		Use:               "taggable",
		Short:             "Administer the taggable tag store",
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", os.Getenv("TAGGABLE_CONFIG"), "Config file (YAML); defaults to $TAGGABLE_CONFIG")
	root.PersistentFlags().BoolVarP(&ui.Verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(newCleanupCmd(a))
	root.AddCommand(newMigrateCmd(a))
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.cfgFile != "" {
		a.ui.VerboseLog("config: %s", a.cfgFile)
	}
	return nil
}

// Execute runs the command tree against Postgres and exits non-zero on error.
func Execute() {
	ui := output.New()
	root := NewRootCmd(ui, Postgres{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
