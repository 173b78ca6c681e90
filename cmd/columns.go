package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/geosift/internal/presentation"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the columns the search service exposes",
	Long: `List the display columns and the searchable columns as JSON.

Examples:
  # Use the configured server
  geosift columns

  # Ask another server
  geosift columns --server http://search.internal:5000

  # Searchable columns only
  geosift columns | jq '.search_columns'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		columns, err := svc.client.Columns(ctx)
		if err != nil {
			return fmt.Errorf("fetching columns: %w", err)
		}
		searchColumns, err := svc.client.SearchColumns(ctx)
		if err != nil {
			return fmt.Errorf("fetching search columns: %w", err)
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatColumns(presentation.ColumnsDTO{
			Columns:       columns,
			SearchColumns: searchColumns,
		})
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}
