package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/template"
)

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the CloudFormation template",
		Long: `Build plans the network, loads the agent configuration and user data
payloads, and writes the dependency-checked CloudFormation template.

Examples:
    tiernet build
    tiernet build -c tiernet.yaml -o stack.json
    tiernet build --format yaml --direct-access`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runBuild(stdout, stderr io.Writer, opts *globalOptions, format, outputFile string) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format: %s", format)
	}
	res, err := opts.run()
	if err != nil {
		return outputBuildResult(stdout, stderr, tiernet.BuildResult{Errors: []string{err.Error()}}, format, outputFile)
	}
	return outputBuildResult(stdout, stderr, tiernet.BuildResult{
		Success:   true,
		Template:  *res.Template,
		Resources: res.Order,
	}, format, outputFile)
}

func outputBuildResult(stdout, stderr io.Writer, result tiernet.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(stderr, e)
		}
		return fmt.Errorf("build failed")
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data, err = template.ToJSON(&result.Template)
	case "yaml":
		data, err = template.ToYAML(&result.Template)
	}
	if err != nil {
		return err
	}
	return writeOutput(stdout, data, outputFile)
}
