package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cimnine/netbox-forager/netbox/models"
)

func NewEndpointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List the known endpoints and their loner keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, ep := range models.Endpoints() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", ep, strings.Join(ep.Loners, " "))
			}
			return nil
		},
	}
}
