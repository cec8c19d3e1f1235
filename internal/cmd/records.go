package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/output"
	"github.com/salmonumbrella/braindump/internal/record"
	"github.com/salmonumbrella/braindump/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"record", "rec"},
	Short:   "Read stored records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in creation order",
	Long: `List records in creation order.

Examples:
  braindump records list
  braindump records list --parent 01J9Z3... --limit 20
  braindump records list -o json --query '.[] | select(.type == "project") | .title'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recordsLimit < 0 {
			return fmt.Errorf("--limit must be non-negative")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.List(ctx, store.ListOptions{Parent: recordsParent, Limit: recordsLimit})
		if err != nil {
			return err
		}
		if recs == nil {
			recs = []record.Record{}
		}

		switch GetOutputFormat() {
		case output.FormatText, output.FormatTable:
			if len(recs) == 0 {
				notef(ctx, "No records found.\n")
				return nil
			}
			return output.NewPrinter(stdoutFromContext(ctx), output.FormatTable).Print(ctx, recordTable(recs))
		default:
			return printResult(ctx, recs)
		}
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("record %s: %w", args[0], err)
		}
		if structuredOutputRequested() {
			return printResult(ctx, rec)
		}

		printf(ctx, "ID:          %s\n", rec.ID)
		printf(ctx, "Title:       %s\n", rec.Title)
		printf(ctx, "Type:        %s\n", rec.Type)
		if rec.Parent != "" {
			printf(ctx, "Parent:      %s\n", rec.Parent)
		}
		if len(rec.Tags) > 0 {
			printf(ctx, "Tags:        %s\n", strings.Join(rec.Tags, ", "))
		}
		printf(ctx, "Urgency:     %d\n", rec.Urgency)
		printf(ctx, "Importance:  %d\n", rec.Importance)
		printf(ctx, "Quadrant:    %s\n", rec.Quadrant())
		if !rec.CreatedAt.IsZero() {
			printf(ctx, "Created:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		}
		if rec.Description != "" && rec.Description != rec.Title {
			printf(ctx, "\n%s\n", rec.Description)
		}
		return nil
	},
}

var (
	recordsParent string
	recordsLimit  int
)

func init() {
	recordsListCmd.Flags().StringVar(&recordsParent, "parent", "", "Only list children of this record")
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", store.DefaultListLimit, "Maximum number of records")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	rootCmd.AddCommand(recordsCmd)
}

func recordTable(recs []record.Record) output.Table {
	t := output.Table{Headers: []string{"ID", "TYPE", "U", "I", "QUADRANT", "TITLE", "PARENT"}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Type,
			strconv.Itoa(r.Urgency),
			strconv.Itoa(r.Importance),
			r.Quadrant(),
			record.Truncate(r.Title, 50),
			r.Parent,
		})
	}
	return t
}
