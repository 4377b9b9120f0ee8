package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/cmd/homewire/cmd/emit"
	"github.com/agentstation/homewire/cmd/homewire/cmd/get"
	"github.com/agentstation/homewire/cmd/homewire/cmd/serve"
	"github.com/agentstation/homewire/cmd/homewire/cmd/stats"
	"github.com/agentstation/homewire/cmd/homewire/cmd/watch"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(watch.NewCommand(a))
	rootCmd.AddCommand(get.NewCommand(a))

	// Development commands
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(emit.NewCommand(a))
	rootCmd.AddCommand(stats.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("homewire %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
