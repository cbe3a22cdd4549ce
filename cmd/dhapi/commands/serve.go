package commands

import (
	"dhapi/lib/numberstore"
	"dhapi/lib/serviceutil"
	"dhapi/lib/telemetry"
	"dhapi/services/webapi"
	"fmt"

	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (defaults to the config, then 8000)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the json web api.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if servePort == 0 {
			servePort = config.Port
		}

		db, err := config.Database.OpenDB(numberstore.Schema)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		cache, err := openScriptCache()
		if err != nil {
			return fmt.Errorf("open script cache: %w", err)
		}
		defer cache.Close()

		server := webapi.NewServer(webapi.Options{
			Login: webapi.DefaultLogin(clientOptions(cache)),
			Store: numberstore.NewStore(db),
		})

		telemetry.InstrumentPerfStats(ctx)
		return serviceutil.StartHttpServer(ctx, servePort, server.Handler())
	},
}
