package main

import (
	"os"

	"github.com/cimnine/netbox-forager/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
