package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Mark a task done or not done",
	Long:  `Flip a task's completion for the selected day and child. Toggling twice undoes the change.`,
	Args:  cobra.ExactArgs(1),
	Run:   toggleTask,
}

func toggleTask(cmd *cobra.Command, args []string) {
	taskID, err := strconv.Atoi(args[0])
	if err != nil {
		fatal("Invalid task id: %s", args[0])
	}

	ctx := context.Background()

	t, err := openTracker(ctx)
	if err != nil {
		fatal("Failed to load tracker: %v", err)
	}
	defer closeTracker(t)

	completed, err := t.Toggle(taskID)
	if err != nil {
		abort(t, "Failed to toggle task: %v", err)
	}

	task, _ := t.Catalog().Task(taskID)
	sel := t.Selection()

	if completed {
		fmt.Printf("✓ Task completed: [%d] %s\n", task.ID, task.Title)
	} else {
		fmt.Printf("○ Task reopened: [%d] %s\n", task.ID, task.Title)
	}
	fmt.Printf("  %s, %s\n", childName(sel.Child), displayDate(sel.Date))
	fmt.Printf("  Points: %d\n", t.Points(sel.Child))
}
