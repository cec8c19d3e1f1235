package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/record"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <text>",
	Short: "Categorize one item without saving it",
	Long: `Send one item to the configured model and show the record it would produce.

Uses Gemini when GEMINI_API_KEY (or the gemini_api_key secret) is set,
otherwise the enhance_url endpoint.

Examples:
  braindump enhance "Call the bank about the mortgage rate before Friday"
  braindump enhance "Plan the offsite" -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return fmt.Errorf("text is required")
		}

		enhancer, err := newEnhancer(ctx)
		if err != nil {
			return err
		}
		enh, err := enhancer.Enhance(ctx, text)
		if err != nil {
			return fmt.Errorf("enhance: %w", err)
		}

		in := enh.Apply(record.Base(text, false, "", cfg.Defaults()))
		if structuredOutputRequested() {
			return printResult(ctx, map[string]interface{}{
				"enhancement": enh,
				"record":      in,
				"quadrant":    record.Quadrant(in.Urgency, in.Importance),
			})
		}

		printf(ctx, "Title:       %s\n", in.Title)
		printf(ctx, "Type:        %s\n", in.Type)
		printf(ctx, "Tags:        %s\n", strings.Join(in.Tags, ", "))
		printf(ctx, "Urgency:     %d\n", in.Urgency)
		printf(ctx, "Importance:  %d\n", in.Importance)
		printf(ctx, "Quadrant:    %s\n", record.Quadrant(in.Urgency, in.Importance))
		if in.Description != in.Title {
			printf(ctx, "\n%s\n", in.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
}
