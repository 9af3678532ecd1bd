package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-tiernet-go/internal/pipeline"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the planned subnets, ACL rules and security groups",
		Long: `Plan runs the topology, ACL and security group planners and prints the
result without loading payloads or building a template.

Examples:
    tiernet plan
    tiernet plan --direct-access
    tiernet plan -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.OutOrStdout(), opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runPlan(w io.Writer, opts *globalOptions, format string) error {
	cfg, logger, closeLog, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	p, err := pipeline.Plan(cfg, logger)
	if err != nil {
		return err
	}
	summary := p.Summarize()

	switch format {
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(w, data, "")
	case "text":
		summary.WriteText(w)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
