package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/record"
	"github.com/salmonumbrella/braindump/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Create records from an indented outline",
	Long: `Parse an indented outline and create one record per line.

Each line becomes a record. Lines indented under another line become its
children, and a line with children is saved as a project. Bullet and number
markers are stripped.

Examples:
  braindump import dump.txt
  braindump import notes.md
  pbpaste | braindump import
  braindump import --text $'Prepare for work trip\n  Pack clothes'
  braindump import dump.txt --enhance --on-error continue
  braindump import dump.txt --dry-run
  braindump import dump.txt --backend api --atomic`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var (
	importText    string
	importFormat  string
	importParent  string
	importEnhance bool
	importOnError string
	importDryRun  bool
	importAtomic  bool
)

func init() {
	importCmd.Flags().StringVar(&importText, "text", "", "Outline text (instead of a file or stdin)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format (text|markdown)")
	importCmd.Flags().StringVar(&importParent, "parent", "", "Attach top-level items to this existing record")
	importCmd.Flags().BoolVar(&importEnhance, "enhance", false, "Categorize each item with the configured model")
	importCmd.Flags().StringVar(&importOnError, "on-error", "", "What to do when a create fails (abort|continue)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and preview without creating records")
	importCmd.Flags().BoolVar(&importAtomic, "atomic", false, "Create all records in one batch (api backend only)")

	rootCmd.AddCommand(importCmd)
}

// importOutput is the structured result of an import.
type importOutput struct {
	materialize.Result
	DryRun bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	text, err := readOutline(cmd, args, importText)
	if err != nil {
		return err
	}
	forest, err := outline.ParseFormat(text, resolveInputFormat(importFormat, args))
	if err != nil {
		return err
	}

	if importDryRun {
		return printForest(ctx, forest)
	}

	policy, err := resolvePolicy(importOnError)
	if err != nil {
		return err
	}
	opts := []materialize.Option{
		materialize.WithPolicy(policy),
		materialize.WithDefaults(cfg.Defaults()),
		materialize.WithLogger(logger),
	}
	if importEnhance {
		enhancer, err := newEnhancer(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, materialize.WithEnhancer(enhance.Func(enhancer)))
	}

	var res materialize.Result
	if importAtomic {
		res, err = importAtomically(ctx, forest, opts)
	} else {
		res, err = importSequentially(ctx, forest, opts)
	}
	return reportImport(ctx, res, err)
}

func importSequentially(ctx context.Context, forest []*outline.Node, opts []materialize.Option) (materialize.Result, error) {
	st, err := openStore(ctx)
	if err != nil {
		return materialize.Result{}, err
	}
	defer st.Close()

	return materialize.New(st.Create, opts...).Run(ctx, forest, importParent)
}

// importAtomically queues every create in one batch so the import either lands
// whole or not at all. Parents are referenced by tempid until the batch commits.
func importAtomically(ctx context.Context, forest []*outline.Node, opts []materialize.Option) (materialize.Result, error) {
	if backend := resolveBackend(); backend != store.BackendAPI {
		return materialize.Result{}, fmt.Errorf("--atomic requires the api backend (current: %s)", backend)
	}
	client, err := newAPIClient()
	if err != nil {
		return materialize.Result{}, err
	}

	batch := api.NewBatchBuilder()
	queue := func(_ context.Context, in record.Input) (string, error) {
		return batch.CreateRecord(in), nil
	}
	res, err := materialize.New(queue, opts...).Run(ctx, forest, importParent)
	if err != nil {
		// Nothing has been sent yet.
		res.Created = 0
		res.Records = nil
		return res, err
	}

	ids, err := client.ExecuteBatch(ctx, batch)
	if err != nil {
		return materialize.Result{Total: res.Total, Skipped: res.Total, Warnings: res.Warnings},
			&materialize.PartialError{Created: 0, Total: res.Total, Err: fmt.Errorf("batch rejected: %w", err)}
	}
	for i := range res.Records {
		res.Records[i].ID = resolveTempID(ids, res.Records[i].ID)
		res.Records[i].Parent = resolveTempID(ids, res.Records[i].Parent)
	}
	logger.Info("atomic import committed", zap.Int("records", res.Created))
	return res, nil
}

func resolveTempID(ids map[string]string, ref string) string {
	if id, ok := ids[ref]; ok {
		return id
	}
	return ref
}

func reportImport(ctx context.Context, res materialize.Result, err error) error {
	var partial *materialize.PartialError
	if err != nil && !errors.As(err, &partial) {
		return err
	}

	if structuredOutputRequested() {
		out := importOutput{Result: res}
		if err != nil {
			out.Error = err.Error()
		}
		if printErr := printResult(ctx, out); printErr != nil {
			return printErr
		}
		return err
	}

	for _, w := range res.Warnings {
		notef(ctx, "warning: enhancement failed for %q, saved with defaults: %s\n", w.Text, w.Message)
	}
	for _, f := range res.Failures {
		notef(ctx, "failed: %q (%d children skipped): %s\n", f.Text, f.Skipped, f.Message)
	}
	if err != nil {
		return err
	}
	printf(ctx, "Created %d records\n", res.Created)
	return nil
}
