// Package stats provides the stats command, which shows the connection
// counts of a development push server.
package stats

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/internal/server/client"
)

// NewCommand creates the stats command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stats",
		GroupID: "development",
		Short:   "Show connection counts of a development push server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := cmd.Flags().GetString("server")
			if err != nil {
				return err
			}
			if server == "" {
				server = app.ServerURL()
			}

			stats, err := client.New(server).Stats(cmd.Context())
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatText {
				format = output.FormatTable
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().String("server", "", "push server base URL (overrides server_url)")

	return cmd
}
