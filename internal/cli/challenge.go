package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plancoach/plancoach/internal/daemon"
	"github.com/plancoach/plancoach/internal/domain"
)

func init() {
	createCmd.Flags().StringVar(&createType, "type", "daily", "Challenge type: daily, weekly or custom")
	createCmd.Flags().IntVar(&createTarget, "target", 1, "Target value per period")
	createCmd.Flags().StringVar(&createUnit, "unit", "times", "Unit: minutes, tasks, steps, times or checkin")
	createCmd.Flags().IntVar(&createResetDays, "every", 0, "Reset period in days (custom challenges)")

	challengeCmd.AddCommand(challengeListCmd, createCmd, checkinCmd, challengeRmCmd)
	rootCmd.AddCommand(challengeCmd)
}

var (
	createType      string
	createTarget    int
	createUnit      string
	createResetDays int
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Manage recurring challenges",
}

var challengeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active challenges",
	RunE:  runChallengeList,
}

func runChallengeList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	active := d.Engine.ActiveChallenges()
	if len(active) == 0 {
		fmt.Println("No active challenges. Create one with `plancoach challenge create`.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPROGRESS\tSTREAK")
	for _, c := range active {
		done := ""
		if c.CompletedToday {
			done = " ✓"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%d/%d %s%s\t%d\n",
			c.ID[:8], c.Icon, c.Name, c.Type, c.Current, c.Target, c.Unit, done, c.Streak)
	}
	return w.Flush()
}

var createCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeCreate,
}

func runChallengeCreate(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	c, err := d.Engine.CreateChallenge(domain.ChallengeConfig{
		Type:            domain.ChallengeType(createType),
		Name:            args[0],
		Target:          createTarget,
		Unit:            domain.Unit(createUnit),
		ResetPeriodDays: createResetDays,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created %s %q (%s, target %d %s)\n", c.ID[:8], c.Name, c.Type, c.Target, c.Unit)
	return nil
}

var checkinCmd = &cobra.Command{
	Use:   "checkin ID",
	Short: "Record one completion unit for a challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckin,
}

func runCheckin(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	id, err := resolveChallengeID(d, args[0])
	if err != nil {
		return err
	}
	res, err := d.Engine.Checkin(id)
	if err != nil {
		return err
	}
	switch {
	case res.AlreadyCompleted:
		fmt.Println("Already completed this period.")
	case res.Completed:
		fmt.Printf("Completed! %s streak is now %d. 🎉\n", res.Challenge.Name, res.Challenge.Streak)
	default:
		fmt.Printf("%d/%d %s\n", res.Challenge.Current, res.Challenge.Target, res.Challenge.Unit)
	}
	return nil
}

var challengeRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a challenge (it keeps its history)",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeRm,
}

func runChallengeRm(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	id, err := resolveChallengeID(d, args[0])
	if err != nil {
		return err
	}
	if err := d.Engine.DeleteChallenge(id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
