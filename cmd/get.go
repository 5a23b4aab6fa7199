package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func NewGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <app/model>",
		Short: "Query one endpoint and print the matching objects",
		Long: `Query one endpoint and print the matching objects as JSON, sorted by id.

Filters are given as key=value. A key given several times matches any of its
values. Prefix a key with or_ to send all its values in one request. The keys
limit and max_limit set the page size and cap the number of results.`,
		Example: `  netbox-forager get ipam/prefixes -f status=active -f site=zrh -f site=bsl
  netbox-forager get dcim/devices -f max_limit=10`,
		Args: cobra.ExactArgs(1),
		RunE: runGet,
	}

	flags := cmd.Flags()
	flags.StringArrayP(filterFlag, "f", nil, "filter as key=value, repeatable")
	flags.Int(threadsFlag, 0, "number of concurrent requests, overrides query.threads")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray(filterFlag)
	filters, err := parseFilters(pairs)
	if err != nil {
		return err
	}

	ep, err := lookup(cmd, args[0])
	if err != nil {
		return err
	}

	return run(cmd, func(ctx context.Context, a *app) error {
		objects, err := a.engine.Get(ctx, ep, filters, a.options(cmd)...)
		if err != nil {
			return err
		}

		return writeJSON(cmd.OutOrStdout(), objects)
	})
}
