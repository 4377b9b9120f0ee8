// Package emit provides the emit command, which publishes one change event
// to a development push server.
package emit

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/internal/server/client"
	"github.com/agentstation/homewire/pkg/errors"
	"github.com/agentstation/homewire/pkg/realtime"
)

// NewCommand creates the emit command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "emit <flat|house> <create|update|delete> <record-json|id>",
		GroupID: "development",
		Short:   "Publish a change event to a development push server",
		Long: `Emit builds one change frame, checks it with the same validation
clients apply, and posts it to a running "homewire serve".

CREATE and UPDATE take the full record as JSON, including its numeric id.
DELETE takes the record id.`,
		Example: `  homewire emit flat delete 7
  homewire emit house create '{"id":3,"name":"Tower","year":1990,"numberOfFlatsOnFloor":4}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := BuildFrame(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			server := mustGetString(cmd, "server")
			if server == "" {
				server = app.ServerURL()
			}
			c := client.New(server,
				client.WithAPIKey(app.APIKey()),
				client.WithAuthHeader(mustGetString(cmd, "auth-header")),
			)

			result, err := c.Publish(cmd.Context(), frame)
			if err != nil {
				return err
			}
			app.Logger().Debug().Str("event_id", result.ID).Msg("Change event accepted")

			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().String("server", "", "push server base URL (overrides server_url)")
	cmd.Flags().String("auth-header", "X-API-Key", "header carrying the API key")

	return cmd
}

// BuildFrame turns command arguments into a validated wire frame.
func BuildFrame(kindArg, actionArg, data string) ([]byte, error) {
	kind, err := realtime.ParseEntityKind(kindArg)
	if err != nil {
		return nil, err
	}
	action, err := realtime.ParseAction(actionArg)
	if err != nil {
		return nil, err
	}

	var payload realtime.Payload
	if action == realtime.ActionDelete {
		id, err := strconv.ParseInt(strings.TrimSpace(data), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.NewValidationError("id", data, "must be a positive integer")
		}
		payload = realtime.IDPayload(id)
	} else {
		if !json.Valid([]byte(data)) {
			return nil, errors.NewValidationError("record", data, "must be a JSON object")
		}
		payload, err = realtime.RecordPayload(json.RawMessage(data))
		if err != nil {
			return nil, err
		}
	}

	frame, err := realtime.Encode(realtime.ChangeEvent{Kind: kind, Action: action, Payload: payload})
	if err != nil {
		return nil, err
	}
	// Catch anything the server would reject before sending it.
	if _, err := realtime.Decode(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
