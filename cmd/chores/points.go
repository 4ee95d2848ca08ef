package main

import (
	"context"
	"fmt"

	"github.com/fmizzell/chores"
	"github.com/spf13/cobra"
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Show total points per child",
	Args:  cobra.NoArgs,
	Run:   showPoints,
}

func showPoints(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	t, err := openTracker(ctx)
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	fmt.Println("🏆 Total Points")
	for _, child := range chores.Children() {
		fmt.Printf("  %s: %d\n", childName(child), t.Points(child))
	}
}
