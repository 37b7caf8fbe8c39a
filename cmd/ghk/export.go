package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gharkharcha/internal/export"
	"gharkharcha/internal/store/gormstore"
)

func newExportCmd(app *cli) *cobra.Command {
	var (
		flags windowFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export expenses in a date window as CSV",
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

			var dst io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				dst = f
			}

			var n int
			err = app.openStore(cmd.Context(), func(ctx context.Context, st *gormstore.Store) error {
				n, err = export.FromStore(ctx, dst, st, id.UID, w.Start, w.End, app.log)
				return err
			})
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			app.log.Infow("Exported expenses", "count", n, "start", w.Start.Format(dateLayout), "end", w.End.Format(dateLayout))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
