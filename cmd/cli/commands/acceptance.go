package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/core/services"
)

// quotaFlag returns the --quota value, or nil when the flag was not given
func quotaFlag(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("quota") {
		return nil
	}
	quota, _ := cmd.Flags().GetInt("quota")
	return &quota
}

// PreviewRankingCmd creates the previewRanking command
func PreviewRankingCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "previewRanking <period_id>",
		Short: "Rank a period's applicants and show the outcome without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customQuota := quotaFlag(cmd)
			app.Logger.Debug("previewRanking command", zap.String("period_id", args[0]))

			result, err := services.ProcessAcceptance(app.Ctx, app.Database, app.Locker, app.Cfg, app.Logger, app.Metrics,
				services.AcceptanceRequest{
					PeriodID:    args[0],
					CustomQuota: customQuota,
					DryRun:      true,
				})
			if err != nil {
				return err
			}

			writeRanking(os.Stdout, result)
			fmt.Println("\n💡 This was a preview. Run commitAcceptance to save the outcome.")
			return nil
		},
	}

	cmd.Flags().Int("quota", 0, "Use this total seat count instead of the period quota")

	return cmd
}

// CommitAcceptanceCmd creates the commitAcceptance command
func CommitAcceptanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commitAcceptance <period_id>",
		Short: "Rank a period's applicants and save every outcome in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customQuota := quotaFlag(cmd)
			timeout, _ := cmd.Flags().GetDuration("timeout")

			app.Logger.Debug("commitAcceptance command",
				zap.String("period_id", args[0]),
				zap.Duration("timeout", timeout))

			ctx := app.Ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := services.ProcessAcceptance(ctx, app.Database, app.Locker, app.Cfg, app.Logger, app.Metrics,
				services.AcceptanceRequest{
					PeriodID:    args[0],
					CustomQuota: customQuota,
				})
			if err != nil {
				return describeAcceptanceError(err)
			}

			writeRanking(os.Stdout, result)
			fmt.Println("\n✅ Outcomes have been saved to the database.")
			return nil
		},
	}

	cmd.Flags().Int("quota", 0, "Use this total seat count instead of the period quota")
	cmd.Flags().Duration("timeout", 2*time.Minute, "Abort the commit if it takes longer than this")

	return cmd
}

// describeAcceptanceError adds operator guidance to the errors a commit can end with
func describeAcceptanceError(err error) error {
	var (
		conflictErr *admission.ConflictError
		commitErr   *admission.CommitError
	)
	switch {
	case errors.As(err, &conflictErr):
		return fmt.Errorf("%w\n💡 Another operator is committing this period. Wait for it to finish and preview again", err)
	case errors.As(err, &commitErr):
		return fmt.Errorf("%w\n💡 No applicant was changed. Check the listed applicants and run the commit again", err)
	default:
		return err
	}
}

// PublishRankingCmd creates the publishRanking command
func PublishRankingCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishRanking <period_id>",
		Short: "Publish a period's ranking to the ranking spreadsheet",
		Long: `Publish a period's ranking to its own tab of the ranking spreadsheet.
By default a fresh preview is published; use --committed to publish the ranking saved by the latest commit.
Applicants accepted by earlier commits are then listed below it without a rank.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			committed, _ := cmd.Flags().GetBool("committed")

			sheetsClient, err := app.SheetsClient()
			if err != nil {
				return err
			}

			ranking, err := services.PublishRanking(app.Ctx, app.Database, sheetsClient, app.Locker, app.Cfg, app.Logger, app.Metrics,
				services.PublishRequest{
					PeriodID:    args[0],
					CustomQuota: quotaFlag(cmd),
					Committed:   committed,
				})
			if err != nil {
				return err
			}

			fmt.Printf("\n✅ Published %d applicants to tab %q\n", len(ranking.Rows), ranking.TabTitle())
			if len(ranking.EarlierAccepted) > 0 {
				fmt.Printf("   plus %d accepted in earlier runs\n", len(ranking.EarlierAccepted))
			}
			fmt.Printf("https://docs.google.com/spreadsheets/d/%s\n\n", app.Cfg.RankingSheetID)
			return nil
		},
	}

	cmd.Flags().Bool("committed", false, "Publish the saved outcome instead of a preview")
	cmd.Flags().Int("quota", 0, "Use this total seat count for a preview")

	return cmd
}

// NotifyResultsCmd creates the notifyResults command
func NotifyResultsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifyResults <period_id>",
		Short: "Email guardians the outcome of a period's latest commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			var sender services.EmailSender
			if !dryRun {
				gmailClient, err := app.GmailClient()
				if err != nil {
					return err
				}
				sender = gmailClient
			}

			result, err := services.NotifyResults(app.Ctx, app.Database, sender, app.Cfg, app.Logger, app.Metrics, args[0], dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Printf("\n🧪 DRY RUN - %d letters for run %s would be sent:\n", len(result.Notifications)-result.Skipped, result.RunID)
			} else {
				fmt.Printf("\n✅ Sent %d letters for run %s\n", result.Sent, result.RunID)
			}

			for _, n := range result.Notifications {
				switch {
				case n.Recipient == "" || n.Subject == "":
					fmt.Printf("  - %s skipped (no guardian email or outcome)\n", n.FullName)
				case n.Err != nil:
					fmt.Printf("  ✗ %s (%s): %v\n", n.FullName, n.Recipient, n.Err)
				default:
					fmt.Printf("  ✓ %s (%s): %s\n", n.FullName, n.Recipient, n.Subject)
				}
			}
			fmt.Println()

			if result.Failed > 0 {
				return fmt.Errorf("failed to send %d of %d letters", result.Failed, result.Failed+result.Sent)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "List the letters without sending them")

	return cmd
}
