package cmd

import (
	"github.com/spf13/cobra"

	"serialbridge/internal/transport"
	"serialbridge/internal/version"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show detailed version information including build time, git commit
and the network protocols compiled into this binary.

Example:
  serialbridge version`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.out.Plain("serialbridge %s", version.GetVersion())
			a.out.Plain("  platform:  %s", version.Platform())
			a.out.Plain("  protocols: %v", transport.GetAvailableProtocolNames())
		},
	}
}
