package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plancoach/plancoach/internal/daemon"
)

func init() {
	rootCmd.AddCommand(achievementsCmd)
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show the achievement catalog and unlock status",
	RunE:  runAchievements,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	all, err := d.Engine.Achievements()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACHIEVEMENT\tRARITY\tSTATUS")
	unlocked := 0
	for _, a := range all {
		status := "locked"
		if a.Unlocked {
			unlocked++
			status = "unlocked " + a.UnlockedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", a.Icon, a.Name, a.Rarity, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d unlocked\n", unlocked, len(all))
	return nil
}
