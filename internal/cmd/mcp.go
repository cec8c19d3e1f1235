package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/salmonumbrella/braindump/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: outline_parse, outline_import, record_get, record_list

Logs go to stderr so they never mix with protocol messages.

Example client config:
  {"command": "braindump", "args": ["mcp"]}`,
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
		return mcpserver.Run(mcpserver.NewHandlers(st, enhancer, cfg.Defaults(), logger), version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
