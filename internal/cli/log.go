package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plancoach/plancoach/internal/daemon"
	"github.com/plancoach/plancoach/internal/domain"
)

func init() {
	logCmd.Flags().IntVar(&logTasks, "tasks", 0, "Tasks completed")
	logCmd.Flags().IntVar(&logSteps, "steps", 0, "Steps completed")
	logCmd.Flags().IntVar(&logMinutes, "minutes", 0, "Minutes of focused time")
	rootCmd.AddCommand(logCmd)
}

var (
	logTasks   int
	logSteps   int
	logMinutes int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record activity for today",
	Long:  `Record completed tasks, steps, or focus time. The first activity of a day advances the streak.`,
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	delta := domain.DailyActivity{
		TasksCompleted:   logTasks,
		StepsCompleted:   logSteps,
		TimeSpentSeconds: logMinutes * 60,
	}
	if delta.IsZero() {
		return errors.New("nothing to log: pass --tasks, --steps or --minutes")
	}
	if delta.HasNegative() {
		return errors.New("counts must not be negative")
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engine.RecordActivity(delta, nil)
	if res.IsNewDay {
		fmt.Printf("Day %d of your streak! 🔥\n", res.CurrentStreak)
	} else {
		fmt.Println("Logged. Today already counts toward your streak.")
	}
	if res.FreezeGranted {
		fmt.Println("❄️ Freeze token earned for a full week of activity.")
	}
	return nil
}
