package cmd

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/outline"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Preview how an outline will be nested",
	Long: `Parse an outline and show the resulting tree without creating records.

Examples:
  braindump parse dump.txt
  braindump parse notes.md --output json
  cat dump.txt | braindump parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readOutline(cmd, args, parseText)
		if err != nil {
			return err
		}
		forest, err := outline.ParseFormat(text, resolveInputFormat(parseFormat, args))
		if err != nil {
			return err
		}
		return printForest(cmd.Context(), forest)
	},
}

var (
	parseText   string
	parseFormat string
)

func init() {
	parseCmd.Flags().StringVar(&parseText, "text", "", "Outline text (instead of a file or stdin)")
	parseCmd.Flags().StringVar(&parseFormat, "format", "", "Input format (text|markdown)")

	rootCmd.AddCommand(parseCmd)
}

var (
	projectStyle    = lipgloss.NewStyle().Bold(true)
	enumeratorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// forestOutput is the structured form of a parsed outline.
type forestOutput struct {
	Count int             `json:"count" yaml:"count"`
	Nodes []*outline.Node `json:"nodes" yaml:"nodes"`
}

func printForest(ctx context.Context, forest []*outline.Node) error {
	if structuredOutputRequested() {
		return printResult(ctx, forestOutput{Count: outline.Count(forest), Nodes: forest})
	}
	if len(forest) > 0 {
		printf(ctx, "%s\n", renderForest(forest))
	}
	printf(ctx, "%d items\n", outline.Count(forest))
	return nil
}

// renderForest draws the forest as a tree; items with children are bold.
func renderForest(forest []*outline.Node) string {
	t := tree.New().EnumeratorStyle(enumeratorStyle)
	for _, n := range forest {
		t.Child(nodeTree(n))
	}
	return t.String()
}

func nodeTree(n *outline.Node) any {
	if !n.HasChildren() {
		return n.Text
	}
	sub := tree.Root(projectStyle.Render(n.Text)).EnumeratorStyle(enumeratorStyle)
	for _, c := range n.Children {
		sub.Child(nodeTree(c))
	}
	return sub
}
