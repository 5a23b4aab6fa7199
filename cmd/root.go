// Package cmd contains the commands of the netbox-forager binary.
package cmd

import (
	"github.com/spf13/cobra"
)

const (
	configFlag      = "config"
	metricsFileFlag = "metrics-file"
	threadsFlag     = "threads"
	depthFlag       = "depth"
	filterFlag      = "filter"

	defaultConfigFile = "/etc/netbox-forager.conf.yaml"
)

// NewRootCommand returns the top-level command. The subcommands share the
// --config and --metrics-file flags.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netbox-forager",
		Short: "Retrieve, cache and assemble NetBox inventory",
		Long: `netbox-forager retrieves objects from the NetBox REST API, caches complete
collections and assembles them into an object tree with the IPv4 subnet hierarchy.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(configFlag, defaultConfigFile, "where to load the config from")
	flags.String(metricsFileFlag, "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(NewGetCommand())
	cmd.AddCommand(NewFetchCommand())
	cmd.AddCommand(NewTreeCommand())
	cmd.AddCommand(NewEndpointsCommand())

	return cmd
}
