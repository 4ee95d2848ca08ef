package main

import (
	"context"
	"fmt"

	"github.com/fmizzell/chores"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local copy with the remote snapshot",
	Args:  cobra.NoArgs,
	Run:   pullTasks,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send the local copy to the remote store",
	Args:  cobra.NoArgs,
	Run:   pushTasks,
}

func pullTasks(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	// Pull is the only remote read
	t, err := openTracker(ctx, chores.WithHydration(chores.HydrateLocal))
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	if err := t.Pull(ctx); err != nil {
		abort(t, "Failed to pull: %v", err)
	}
	fmt.Printf("✓ Pulled %d completions\n", len(t.Snapshot()))
}

func pushTasks(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	// the local copy is what gets sent, so the remote must not replace it first
	t, err := openTracker(ctx, chores.WithHydration(chores.HydrateLocal))
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	if err := t.Push(ctx); err != nil {
		abort(t, "Failed to push: %v", err)
	}
	fmt.Printf("✓ Pushed %d completions\n", len(t.Snapshot()))
}
