package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ListPeriodsCmd creates the listPeriods command
func ListPeriodsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listPeriods",
		Short: "List admission periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, err := app.Database.ListAdmissionPeriods(app.Ctx)
			if err != nil {
				return err
			}

			app.Logger.Debug("Admission periods fetched", zap.Int("count", len(periods)))

			if len(periods) == 0 {
				fmt.Println("\nNo admission periods found.")
				return nil
			}

			fmt.Printf("\n%-38s  %-24s  %-10s  %s\n", "ID", "Name", "Year", "Quota")
			for _, p := range periods {
				fmt.Printf("%-38s  %-24s  %-10s  %d\n", p.ID, p.Name, p.AcademicYear, p.Quota)
			}
			fmt.Println()
			return nil
		},
	}
}

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns <period_id>",
		Short: "List committed acceptance runs of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := app.Database.ListAcceptanceRuns(app.Ctx, args[0])
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Printf("\nNo acceptance runs committed for period %s.\n", args[0])
				return nil
			}

			fmt.Printf("\n%-36s  %-20s  %-10s  %5s  %8s  %8s  %8s  %8s\n",
				"Run ID", "Committed", "Reference", "Quota", "Accepted", "Waitlist", "Rejected", "Unclass.")
			for _, r := range runs {
				fmt.Printf("%-36s  %-20s  %-10s  %5d  %8d  %8d  %8d  %8d\n",
					r.ID,
					r.CommittedAt.Local().Format("2006-01-02 15:04:05"),
					r.ReferenceDate.Format("2006-01-02"),
					r.Quota,
					r.AcceptedCount,
					r.WaitlistedCount,
					r.RejectedCount,
					r.UnclassifiedCount)
			}
			fmt.Println()
			return nil
		},
	}
}
