package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fmizzell/chores"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const closeTimeout = 30 * time.Second

// exit is swapped out by tests
var exit = os.Exit

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exit(1)
}

// loadConfig applies the flags on top of file and environment settings
func loadConfig() (*chores.Config, error) {
	cfg, err := chores.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	if workspaceFlag != "" {
		cfg.Workspace = workspaceFlag
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if offlineFlag {
		cfg.Offline = true
	}
	return cfg, nil
}

func getWorkspaceDir(cfg *chores.Config) (string, error) {
	if cfg.Workspace != "" {
		return cfg.Workspace, nil
	}
	return os.Getwd()
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "chores: ", 0)
}

// openTracker loads the workspace and applies --child and --date
func openTracker(ctx context.Context, extra ...chores.Option) (*chores.Tracker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	workspaceDir, err := getWorkspaceDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace directory: %w", err)
	}

	opts, err := cfg.TrackerOptions(newLogger())
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	t, err := chores.OpenWorkspace(ctx, workspaceDir, opts...)
	if err != nil {
		return nil, err
	}

	if childFlag != "" {
		child, err := chores.ParseChild(childFlag)
		if err != nil {
			closeTracker(t)
			return nil, err
		}
		if err := t.SelectChild(child); err != nil {
			closeTracker(t)
			return nil, err
		}
	}
	if dateFlag != "" {
		if err := t.SelectDate(dateFlag); err != nil {
			closeTracker(t)
			return nil, err
		}
	}

	if err := t.Degraded(); err != nil {
		fmt.Printf("⚠ Remote store unavailable, showing local copy (%v)\n", err)
		fmt.Printf("  Changes stay local until 'chores pull' or 'chores push'\n\n")
	}
	return t, nil
}

// closeTracker waits for pending remote saves before the process exits
func closeTracker(t *chores.Tracker) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := t.Close(ctx); err != nil {
		fmt.Printf("⚠ Changes saved locally but not synced: %v\n", err)
	}
}

// abort closes the tracker so scheduled saves are flushed, then exits
func abort(t *chores.Tracker, format string, args ...any) {
	closeTracker(t)
	fatal(format, args...)
}

func childName(c chores.Child) string {
	return cases.Title(language.English).String(string(c))
}

func displayDate(date string) string {
	day, err := chores.ParseDate(date)
	if err != nil {
		return date
	}
	return day.Format("Monday, January 2, 2006")
}
