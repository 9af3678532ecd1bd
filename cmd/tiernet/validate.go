package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/validation"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the generated template",
		Long: `Validate builds the template, then checks ACL rule numbering and
DependsOn targets and runs cfn-lint on the result. Warnings do not fail
validation.

Examples:
    tiernet validate
    tiernet validate -c tiernet.hcl -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runValidate(w io.Writer, opts *globalOptions, format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	result := tiernet.ValidateResult{}
	res, err := opts.run()
	if err != nil {
		result.Errors = []string{err.Error()}
		return outputValidateResult(w, result, format)
	}
	result.Resources = len(res.Template.Resources)

	checked, err := validation.Validate(res.Template)
	if err != nil {
		return err
	}
	result.Success = checked.Passed()
	result.Errors = checked.Errors()
	if checked.CfnLint != nil {
		result.Warnings = checked.CfnLint.Warnings
	}

	return outputValidateResult(w, result, format)
}

func outputValidateResult(w io.Writer, result tiernet.ValidateResult, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(w, data, ""); err != nil {
			return err
		}
	} else {
		for _, e := range result.Errors {
			fmt.Fprintf(w, "error: %s\n", e)
		}
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
		if result.Success {
			fmt.Fprintf(w, "Validated %d resources: OK\n", result.Resources)
		}
	}
	if !result.Success {
		return fmt.Errorf("validation failed")
	}
	return nil
}
