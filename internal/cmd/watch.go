package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Import brain dumps dropped into a directory",
	Long: `Watch a directory and import every .txt or .md file written to it.

Files already in the directory are imported first. A file is imported once
it has stopped changing, then moved to processed/ (or failed/ when the
import did not complete).

Examples:
  braindump watch ~/Dropbox/braindump
  braindump watch ./inbox --enhance --on-error continue`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		policy, err := resolvePolicy(watchOnError)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := []materialize.Option{
			materialize.WithPolicy(policy),
			materialize.WithDefaults(cfg.Defaults()),
			materialize.WithLogger(logger),
		}
		if watchEnhance {
			enhancer, err := newEnhancer(ctx)
			if err != nil {
				return err
			}
			opts = append(opts, materialize.WithEnhancer(enhance.Func(enhancer)))
		}
		m := materialize.New(st.Create, opts...)

		importFile := func(ctx context.Context, text, format string) error {
			forest, err := outline.ParseFormat(text, format)
			if err != nil {
				return err
			}
			res, err := m.Run(ctx, forest, watchParent)
			logger.Info("inbox import", zap.Int("created", res.Created), zap.Int("total", res.Total))
			if err == nil {
				notef(ctx, "Created %d records\n", res.Created)
			}
			return err
		}

		w, err := watch.New(args[0], importFile, watch.WithSettle(watchSettle), watch.WithLogger(logger))
		if err != nil {
			return err
		}
		notef(ctx, "Watching %s (Ctrl+C to stop)\n", args[0])
		return w.Run(ctx)
	},
}

var (
	watchParent  string
	watchEnhance bool
	watchOnError string
	watchSettle  time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchParent, "parent", "", "Attach top-level items to this existing record")
	watchCmd.Flags().BoolVar(&watchEnhance, "enhance", false, "Categorize each item with the configured model")
	watchCmd.Flags().StringVar(&watchOnError, "on-error", "", "What to do when a create fails (abort|continue)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "Quiet period before a changed file is imported")

	rootCmd.AddCommand(watchCmd)
}
