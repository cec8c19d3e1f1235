package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve parsing, import and record lookup over HTTP until interrupted.

Routes:
  GET  /healthz
  POST /api/enhance           {"text": "..."}
  POST /api/outline/parse     {"text": "...", "format": "text"}
  POST /api/outline/import    {"text": "...", "parent_id": "", "enhance": false, "on_error": "abort"}
  GET  /api/records?parent=&limit=
  GET  /api/records/{id}

Examples:
  braindump serve
  braindump serve --addr :9000 --backend neo4j`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		enhancer, err := optionalEnhancer(ctx)
		if err != nil {
			return err
		}
		opts := []server.Option{
			server.WithDefaults(cfg.Defaults()),
			server.WithLogger(logger),
		}
		if enhancer != nil {
			opts = append(opts, server.WithEnhancer(enhancer))
		}

		notef(ctx, "Listening on http://%s\n", serveAddr)
		return server.New(st, opts...).ListenAndServe(ctx, serveAddr)
	},
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "Listen address")
	rootCmd.AddCommand(serveCmd)
}
