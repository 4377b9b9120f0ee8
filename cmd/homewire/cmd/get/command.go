// Package get provides the get command, which loads one record from the
// records REST API.
package get

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/realtime"
)

// NewCommand creates the get command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:       "get <flat|house> <id>",
		GroupID:   "core",
		Short:     "Show the current state of a record",
		Long:      `Get loads one flat or house from the records REST API (api_url).`,
		Example:   "  homewire get flat 7\n  homewire get house 3 --format yaml",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"flat", "house"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := realtime.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return errors.NewValidationError("id", args[1], "must be a positive integer")
			}

			fetcher := app.Records()
			var record any
			switch kind {
			case realtime.KindFlat:
				record, err = fetcher.FetchFlat(cmd.Context(), id)
			default:
				record, err = fetcher.FetchHouse(cmd.Context(), id)
			}
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			switch format {
			case output.FormatJSON, output.FormatYAML:
			default:
				record = output.Table(record)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), record)
		},
	}
}
