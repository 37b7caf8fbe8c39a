package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gharkharcha/internal/category"
)

func newCategoriesCmd(app *cli) *cobra.Command {
	var metaFile string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List expense categories with their icon and colour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metaFile == "" {
				metaFile = app.cfg.CategoryMetaFile
			}
			table := category.NewTable()
			if metaFile != "" {
				if err := table.LoadOverrides(metaFile); err != nil {
					return err
				}
			}
			for _, m := range table.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-16s %s\n", m.Category, m.Icon, m.Color)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metaFile, "meta", "", "YAML icon/colour overrides (default $CATEGORY_META_FILE)")
	return cmd
}
