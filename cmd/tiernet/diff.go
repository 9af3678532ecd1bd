package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/differ"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> [template2]",
		Short: "Compare templates resource by resource",
		Long: `Diff compares two CloudFormation templates. With one argument, the file is
compared against the template the current configuration builds, showing
what a rebuild would change.

Examples:
    tiernet diff deployed.json
    tiernet diff old.yaml new.json --ignore-order
    tiernet diff deployed.json --direct-access -f json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), opts, args, outputFormat, ignoreOrder)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

type diffOutput struct {
	Success bool                 `json:"success"`
	Diff    tiernet.TemplateDiff `json:"diff"`
	Summary tiernet.DiffSummary  `json:"summary"`
}

func runDiff(w io.Writer, opts *globalOptions, args []string, format string, ignoreOrder bool) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	dopts := differ.Options{IgnoreOrder: ignoreOrder}

	var result *differ.Result
	var err error
	if len(args) == 2 {
		result, err = differ.CompareFiles(args[0], args[1], dopts)
	} else {
		var before *tiernet.Template
		before, err = differ.LoadTemplate(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		res, rerr := opts.run()
		if rerr != nil {
			return rerr
		}
		result, err = differ.Compare(before, res.Template, dopts)
	}
	if err != nil {
		return err
	}

	if format == "json" {
		data, err := json.MarshalIndent(diffOutput{Success: true, Diff: result.Diff, Summary: result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(w, data, "")
	}
	if result.Empty() {
		fmt.Fprintln(w, "No differences.")
		return nil
	}
	return result.WriteText(w)
}
