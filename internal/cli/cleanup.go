package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/taggable/internal/domain"
	"github.com/pkordes/taggable/internal/output"
)

type cleanupOptions struct {
	userID int64
	global bool
	force  bool
}

func newCleanupCmd(a *app) *cobra.Command {
	var opts cleanupOptions

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete tags that are attached to nothing",
		Long: `cleanup finds tags with no associations and deletes them.
By default every unused tag is considered; --user narrows the search to one
user's tags and --global to tags without an owner. Unless --force is given,
the tags are listed and confirmation is asked before deleting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID *int64
			if cmd.Flags().Changed("user") {
				userID = &opts.userID
			}
			return a.cleanupRun(cmd, userID, opts.global, opts.force)
		},
	}

	cmd.Flags().Int64Var(&opts.userID, "user", 0, "Only consider tags owned by this user ID")
	cmd.Flags().BoolVar(&opts.global, "global", false, "Only consider global tags")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Delete without asking for confirmation")
	cmd.MarkFlagsMutuallyExclusive("user", "global")
	return cmd
}

func (a *app) cleanupRun(cmd *cobra.Command, userID *int64, global, force bool) error {
	ctx := cmd.Context()

	cleaner, closeFn, err := a.open.Cleaner(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	defer closeFn()

	switch {
	case userID != nil:
		a.ui.Info("Looking for unused tags for user ID: %d", *userID)
	case global:
		a.ui.Info("Looking for unused global tags")
	default:
		a.ui.Info("Looking for all unused tags")
	}

	tags, err := cleaner.Unused(ctx, userID, global)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	if len(tags) == 0 {
		a.ui.Info("No unused tags found.")
		return nil
	}

	a.ui.Info("Found %d unused tags.", len(tags))

	if !force {
		if err := a.renderTags(tags); err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		if !a.ui.Confirm("Do you want to delete these tags?") {
			a.ui.Info("Operation cancelled.")
			return nil
		}
	}

	ids := make([]uuid.UUID, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	n, err := cleaner.DeleteMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	a.ui.Success("Successfully deleted %d unused tags.", n)
	return nil
}

func (a *app) renderTags(tags []domain.Tag) error {
	table := a.ui.Table([]string{"ID", "Name", "User ID", "Type"})
	for _, t := range tags {
		owner := output.Faint("Global")
		if t.UserID != nil {
			owner = strconv.FormatInt(*t.UserID, 10)
		}
		typ := output.Faint("None")
		if t.Type != nil {
			typ = *t.Type
		}
		if err := table.Append([]string{t.ID.String(), output.Cyan(t.Name), owner, typ}); err != nil {
			return err
		}
	}
	return table.Render()
}
