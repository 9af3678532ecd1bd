package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/optimizer"
	"github.com/lex00/wetwire-tiernet-go/internal/pipeline"
)

// validCategories lists all valid optimization categories.
var validCategories = map[string]bool{
	"all":                         true,
	optimizer.CategorySecurity:    true,
	optimizer.CategoryCost:        true,
	optimizer.CategoryReliability: true,
}

// isValidCategory checks if a category is valid.
func isValidCategory(category string) bool {
	return validCategories[category]
}

type optimizeOutput struct {
	Success     bool                         `json:"success"`
	Profile     string                       `json:"profile"`
	Suggestions []tiernet.OptimizeSuggestion `json:"suggestions"`
	Summary     tiernet.OptimizeSummary      `json:"summary"`
}

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest network plan improvements",
		Long: `Optimize reviews the plan and suggests improvements.

Categories:
    security     - Internet exposure of isolated tiers, open SSH
    cost         - Unused address space in the base block
    reliability  - Zone count, tiers without flows, ACL rule numbering headroom

Examples:
    tiernet optimize
    tiernet optimize --category security --direct-access
    tiernet optimize -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: all, security, cost, reliability)", category)
			}
			return runOptimize(cmd.OutOrStdout(), opts, outputFormat, category)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&category, "category", "all", "Category: all, security, cost, or reliability")

	return cmd
}

func runOptimize(w io.Writer, opts *globalOptions, format, category string) error {
	cfg, logger, closeLog, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	p, err := pipeline.Plan(cfg, logger)
	if err != nil {
		return err
	}
	optResult, err := optimizer.Optimize(p, optimizer.Options{Category: category})
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	return outputOptimizeResult(w, optimizeOutput{
		Success:     true,
		Profile:     p.Profile.Name(),
		Suggestions: optResult.Suggestions,
		Summary:     optResult.Summary,
	}, format)
}

func outputOptimizeResult(w io.Writer, result optimizeOutput, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(w, data, "")

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Profile %s: no suggestions.\n", result.Profile)
			return nil
		}
		fmt.Fprintf(w, "Profile %s: %d suggestions\n\n", result.Profile, result.Summary.Total)

		byCat := map[string][]tiernet.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}
		for _, cat := range []string{optimizer.CategorySecurity, optimizer.CategoryCost, optimizer.CategoryReliability} {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}
			fmt.Fprintf(w, "=== %s (%d) ===\n", capitalize(cat), len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Fprintf(w, "  Subject: %s\n", s.Subject)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Summary: %d security, %d cost, %d reliability\n",
			result.Summary.Security, result.Summary.Cost, result.Summary.Reliability)
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
