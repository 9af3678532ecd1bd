package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tiernet "github.com/lex00/wetwire-tiernet-go"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the template resources in creation order",
		Long: `List builds the template and prints every resource in dependency order.

Examples:
    tiernet list
    tiernet list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(w io.Writer, opts *globalOptions, format string) error {
	res, err := opts.run()
	if err != nil {
		return err
	}

	listResult := tiernet.ListResult{
		Resources: make([]tiernet.ListResource, 0, len(res.Order)),
	}
	for _, name := range res.Order {
		listResult.Resources = append(listResult.Resources, tiernet.ListResource{
			Name:      name,
			Type:      res.Template.Resources[name].Type,
			DependsOn: res.Dependencies[name],
		})
	}

	return outputListResult(w, listResult, format)
}

func outputListResult(w io.Writer, result tiernet.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(w, data, "")

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}
		fmt.Fprintf(w, "Resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
