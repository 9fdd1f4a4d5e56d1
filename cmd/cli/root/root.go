package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the courier command; subcommand packages attach to it in main.
var RootCmd = &cobra.Command{
	Use:           "courier",
	Short:         "Courier messaging CLI",
	Long:          "Command line interface for the Courier direct messaging API.\nSet COURIER_API_URL to point at a server other than http://localhost:8080.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func GetRoot() *cobra.Command {
	return RootCmd
}
