package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plancoach/plancoach/internal/daemon"
)

func init() {
	rootCmd.AddCommand(freezeCmd)
}

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Spend a freeze token to protect your streak",
	Long:  `Arms a streak freeze: the next day without activity does not break the streak.`,
	RunE:  runFreeze,
}

func runFreeze(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res := d.Engine.FreezeStreak()
	if !res.Success {
		return fmt.Errorf("cannot freeze: %s", res.Reason)
	}
	fmt.Printf("❄️ Freeze armed. %d token(s) left.\n", res.Remaining)
	return nil
}
