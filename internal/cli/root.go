// Package cli implements the PlanCoach command-line interface using Cobra.
// Each subcommand maps to an engine capability (serve, stats, challenge...).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "plancoach",
	Short: "PlanCoach — streaks, challenges and achievements for your tasks",
	Long: `PlanCoach keeps you showing up: it tracks your daily activity streak,
runs recurring challenges, and unlocks achievements as you go.

All state lives locally under ~/.plancoach.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
