package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cimnine/netbox-forager/netbox/models"
)

func NewFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [app/model...]",
		Short: "Fetch complete collections into the cache",
		Long:  "Fetch the given endpoints, or every known endpoint, and replace the cached snapshot.",
		RunE:  runFetch,
	}

	cmd.Flags().Int(threadsFlag, 0, "number of concurrent requests, overrides query.threads")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	endpoints := models.Endpoints()
	if len(args) > 0 {
		endpoints = endpoints[:0:0]
		for _, path := range args {
			ep, err := lookup(cmd, path)
			if err != nil {
				return err
			}
			endpoints = append(endpoints, ep)
		}
	}

	return run(cmd, func(ctx context.Context, a *app) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snapshot, err := a.cachingResolver(store).Refresh(ctx, endpoints, a.options(cmd)...)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s from NetBox %s\n", snapshot.Status.ID, snapshot.Status.Version)
		for _, key := range snapshot.Collections.Keys() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %d\n", key, len(snapshot.Collections[key]))
		}
		return nil
	})
}
