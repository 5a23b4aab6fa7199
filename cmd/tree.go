package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cimnine/netbox-forager/tree"
)

func NewTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <app/model> [id]",
		Short: "Print assembled objects from the cache",
		Long: `Load the cached snapshot, replace every reference by the object it points to,
add the IPv4 subnet hierarchy and print the objects of one collection.
Nested objects deeper than --depth are shortened to their plain fields.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runTree,
	}

	cmd.Flags().Int(depthFlag, 1, "levels of nested objects to print in full")

	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	ep, err := lookup(cmd, args[0])
	if err != nil {
		return err
	}

	id := 0
	if len(args) == 2 {
		id, err = strconv.Atoi(args[1])
		if err != nil || id <= 0 {
			return fmt.Errorf("'%s' is not an object id", args[1])
		}
	}

	depth, _ := cmd.Flags().GetInt(depthFlag)

	return run(cmd, func(ctx context.Context, a *app) error {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		collections, err := a.cachingResolver(store).Tree(ctx)
		if err != nil {
			return err
		}

		collection := collections[ep.Key()]
		if id > 0 {
			object, ok := collection[id]
			if !ok {
				return fmt.Errorf("%s/%d is not in the cache", ep, id)
			}
			return writeJSON(cmd.OutOrStdout(), tree.Prune(object, depth))
		}

		out := make([]interface{}, 0, len(collection))
		for _, objectID := range collection.IDs() {
			out = append(out, tree.Prune(collection[objectID], depth))
		}
		return writeJSON(cmd.OutOrStdout(), out)
	})
}
