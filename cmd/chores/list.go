package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fmizzell/chores"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the day's tasks",
	Long:  `List every task for the selected day and child, with completion marks, examples and options.`,
	Args:  cobra.NoArgs,
	Run:   listTasks,
}

func listTasks(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	t, err := openTracker(ctx)
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	printDay(t)
}

func printDay(t *chores.Tracker) {
	sel := t.Selection()

	fmt.Printf("📅 %s (%s)\n", displayDate(sel.Date), childName(sel.Child))
	fmt.Println()

	for _, task := range t.Day() {
		displayTask(task)
	}

	fmt.Printf("🏆 %s has %d points\n", childName(sel.Child), t.Points(sel.Child))
}

func displayTask(task chores.DayTask) {
	statusIcon := "○"
	if task.Completed {
		statusIcon = "✓"
	}

	fmt.Printf("%s [%d] %s\n", statusIcon, task.ID, task.Title)

	if len(task.Examples) > 0 {
		fmt.Printf("     Examples: %s\n", strings.Join(task.Examples, ", "))
	}
	if len(task.Options) > 0 {
		fmt.Printf("     Options: %s\n", strings.Join(task.Options, ", "))
	}
}
