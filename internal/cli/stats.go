package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plancoach/plancoach/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streak and activity stats",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	sum := d.Engine.StreakSummary()
	fmt.Printf("Streak:      %d day(s) (longest %d)\n", sum.Current, sum.Longest)
	fmt.Printf("Active days: %d total\n", sum.TotalDays)
	fmt.Printf("Freeze:      %d token(s)", sum.FreezeTokens)
	if sum.IsFrozen {
		fmt.Print(", one armed")
	}
	fmt.Println()
	if sum.AtRisk {
		fmt.Println("⚠ Streak at risk: no activity recorded today.")
	}

	today := d.Engine.TodayStats()
	fmt.Printf("\nToday: %d task(s), %d step(s), %dm focused\n",
		today.TasksCompleted, today.StepsCompleted, today.TimeSpentSeconds/60)

	week := d.Engine.WeekStats()
	fmt.Printf("Week:  %d task(s), %d step(s), %dm focused over %d active day(s)\n",
		week.TasksCompleted, week.StepsCompleted, week.TimeSpentSeconds/60, week.ActiveDays)
	return nil
}
