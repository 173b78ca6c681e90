package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/geosift/internal/presentation"
	"github.com/zjrosen/geosift/internal/searchapi"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [column=value ...]",
	Short: "Run one search and print the results",
	Long: `Run a single search against the search service and print the results
as a table, or as JSON with --json.

Each argument filters one searchable column. Filters are sent in the
order the service lists its searchable columns.

Examples:
  # Everything the server returns by default
  geosift search

  # Filter by name and city
  geosift search name=cafe city=bilbao

  # Limit the result count
  geosift search name=cafe --limit 10

  # Extract coordinates with jq
  geosift search name=cafe --json | jq '.results[] | [.lat, .lon]'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		filters, err := parseFilters(args)
		if err != nil {
			return err
		}

		svc, err := newServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		searchColumns, err := svc.client.SearchColumns(ctx)
		if err != nil {
			return fmt.Errorf("fetching search columns: %w", err)
		}
		params, err := orderParams(filters, searchColumns)
		if err != nil {
			return err
		}

		limit := cfg.Search.Limit
		if cmd.Flags().Changed("limit") {
			limit = searchLimit
		}
		q := searchapi.Query{Params: params, Limit: limit}
		resp, err := svc.client.Search(ctx, q)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		result := presentation.FromResponse(q, resp)
		if searchJSON {
			return formatter.FormatResults(result)
		}

		columns, err := svc.client.Columns(ctx)
		if err != nil {
			return fmt.Errorf("fetching columns: %w", err)
		}
		return formatter.FormatTable(columns, result)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (overrides search.limit, 0 for server default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the response as JSON")
	rootCmd.AddCommand(searchCmd)
}

// parseFilters splits column=value arguments. A column may appear once.
func parseFilters(args []string) (map[string]string, error) {
	filters := make(map[string]string, len(args))
	for _, arg := range args {
		column, value, ok := strings.Cut(arg, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid filter %q: expected column=value", arg)
		}
		if _, dup := filters[column]; dup {
			return nil, fmt.Errorf("duplicate filter for column %q", column)
		}
		filters[column] = value
	}
	return filters, nil
}

// orderParams returns the filters in searchable-column order. Filters on
// columns the service cannot search are an error.
func orderParams(filters map[string]string, searchColumns []string) ([]searchapi.Param, error) {
	for column := range filters {
		if !slices.Contains(searchColumns, column) {
			return nil, fmt.Errorf("column %q is not searchable (searchable: %s)", column, strings.Join(searchColumns, ", "))
		}
	}
	var params []searchapi.Param
	for _, column := range searchColumns {
		if value, ok := filters[column]; ok {
			params = append(params, searchapi.Param{Column: column, Value: value})
		}
	}
	return params, nil
}
