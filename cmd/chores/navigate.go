package main

import (
	"context"
	"fmt"

	"github.com/fmizzell/chores"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next day",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		stepDay(1)
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move to the previous day",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		stepDay(-1)
	},
}

func stepDay(days int) {
	ctx := context.Background()

	t, err := openTracker(ctx)
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	_, moved, err := t.StepDate(days)
	if err != nil {
		abort(t, "Failed to change day: %v", err)
	}
	if !moved {
		w := t.Window()
		fmt.Printf("Already at the edge of the vacation (%s to %s).\n\n",
			chores.FormatDate(w.Start), chores.FormatDate(w.End))
	}

	printDay(t)
}
