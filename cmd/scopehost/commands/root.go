// Package commands implements the scopehost command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"

	configFile string
)

// NewRootCommand builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scopehost",
		Short: "Run scoped hosts of managed services",
		Long: `scopehost runs one or more scopes, each with its own host starting and
stopping the scope's hosted services in order.

Configuration is read from --config and SCOPEHOST_* environment variables,
for example SCOPEHOST_HOST_SHUTDOWN_TIMEOUT=10s.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")

	root.AddCommand(newRunCommand())
	root.AddCommand(newServicesCommand())
	root.AddCommand(newConfigCommand())
	return root
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
