// Package watch provides the watch command, which follows the push channel
// and prints status transitions and change events.
package watch

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/realtime"
	"github.com/agentstation/homewire/pkg/records"
)

// NewCommand creates the watch command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch [flat|house ...]",
		GroupID: "core",
		Short:   "Follow the push channel and print change events",
		Long: `Watch opens the push channel and prints every connection status
transition and every valid FLAT and HOUSE change event until interrupted.

Malformed frames are logged and skipped. When the connection drops the
client waits and reconnects, up to the configured number of attempts.`,
		Example: `  # Follow every kind on the default endpoint
  homewire watch

  # Only flats, as JSON lines
  homewire watch flat --format json

  # Reload each created or updated record from the REST API
  homewire watch --reload`,
		ValidArgs: []string{"flat", "house"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, app)
		},
	}

	cmd.Flags().String("url", "", "push endpoint (overrides ws_url)")
	cmd.Flags().Bool("reload", false, "fetch the record from the REST API after CREATE and UPDATE")
	cmd.Flags().Bool("no-notify", false, "omit notification text from event lines")

	return cmd
}

func run(cmd *cobra.Command, args []string, app appcontext.Interface) error {
	ctx := cmd.Context()
	logger := app.Logger()

	kinds := make([]realtime.EntityKind, 0, len(args))
	for _, arg := range args {
		kind, err := realtime.ParseEntityKind(arg)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	endpoint := mustGetString(cmd, "url")
	if endpoint == "" {
		endpoint = app.WSURL()
	}

	var fetcher *records.CachedFetcher
	if mustGetBool(cmd, "reload") {
		fetcher = app.Records()
	}

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	watcher := NewWatcher(cmd.OutOrStdout(), output.NewFormatter(format), fetcher, logger, Options{
		Kinds:    kinds,
		Notify:   !mustGetBool(cmd, "no-notify"),
		Language: app.Language(),
	})

	client, err := realtime.New(endpoint,
		realtime.WithLogger(logger),
		realtime.WithDialer(app.Dialer()),
		realtime.WithReconnectPolicy(app.ReconnectPolicy()),
	)
	if err != nil {
		return err
	}

	unsubscribeStatus := client.SubscribeToStatus(watcher.Status)
	detach, err := watcher.Attach(ctx, client)
	if err != nil {
		unsubscribeStatus()
		client.Disconnect()
		return err
	}

	logger.Debug().Str("url", endpoint).Msg("Watching push channel")
	<-ctx.Done()

	detach()
	client.Disconnect()
	select {
	case <-client.Done():
	case <-time.After(constants.ShutdownTimeout):
		logger.Warn().Msg("Timed out waiting for the client to stop")
	}
	unsubscribeStatus()
	watcher.Wait()
	return nil
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

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
