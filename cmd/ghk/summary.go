package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"gharkharcha/internal/category"
	"gharkharcha/internal/models"
	"gharkharcha/internal/report"
	"gharkharcha/internal/services"
	"gharkharcha/internal/store/gormstore"
)

func newSummaryCmd(app *cli) *cobra.Command {
	var (
		flags  windowFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the expense summary for a date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := flags.window(time.Now())
			if err != nil {
				return err
			}
			id, err := app.identity(flags.token)
			if err != nil {
				return err
			}

			var summary models.ExpenseSummary
			err = app.openStore(cmd.Context(), func(ctx context.Context, st *gormstore.Store) error {
				summary, err = services.QuerySummary(ctx, st, id.UID, w.Start, w.End, app.log)
				return err
			})
			if err != nil {
				return fmt.Errorf("summary query failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(cmd.OutOrStdout(), w, summary)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func printSummary(out io.Writer, w report.Window, s models.ExpenseSummary) {
	fmt.Fprintf(out, "%s to %s\n", w.Start.Format(dateLayout), w.End.Format(dateLayout))
	fmt.Fprintf(out, "%-16s %12s\n", "Total", s.TotalAmount)
	fmt.Fprintf(out, "%-16s %12s\n", "Planned", s.PlannedAmount)
	fmt.Fprintf(out, "%-16s %12s\n", "Unplanned", s.UnplannedAmount)

	ranked := report.RankCategories(s.ByCategory, category.Default())
	if len(ranked) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, c := range ranked {
		fmt.Fprintf(out, "%-16s %12s %4d%%\n", c.Category, c.Amount, c.Share)
	}
}
