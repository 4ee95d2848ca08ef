package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	workspaceFlag string
	endpointFlag  string
	configFlag    string
	childFlag     string
	dateFlag      string
	offlineFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "chores",
	Short: "Vacation chores tracker",
	Long: `Track vacation chores per child and per day, count points, and keep
completions in sync with a remote store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace directory holding .chores (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Remote store endpoint URL")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ~/.config/chores/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&childFlag, "child", "c", "", "Select child (aaliya, haidar)")
	rootCmd.PersistentFlags().StringVarP(&dateFlag, "date", "d", "", "Select day (YYYY-MM-DD)")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "Do not talk to the remote store")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
