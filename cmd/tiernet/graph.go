package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-tiernet-go/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		cluster           string
		flows             bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate a DOT graph of resource dependencies or traffic flows",
		Long: `Generate a DOT or Mermaid graph of the template's resource dependencies,
or with --flows, of the traffic flows between tiers.

The output can be rendered with Graphviz:
    tiernet graph | dot -Tpng -o deps.png

Examples:
    tiernet graph
    tiernet graph -p                  # include parameters
    tiernet graph --cluster tier      # group resources by subnet tier
    tiernet graph --flows -f mermaid  # tier flows as mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.OutOrStdout(), opts, outputFormat, includeParameters, cluster, flows)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().StringVar(&cluster, "cluster", "", "Cluster resources: type or tier")
	cmd.Flags().BoolVar(&flows, "flows", false, "Graph traffic flows between tiers instead of resources")

	return cmd
}

func runGraph(w io.Writer, opts *globalOptions, format string, includeParams bool, cluster string, flows bool) error {
	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}
	var graphCluster graph.Cluster
	switch cluster {
	case "":
	case "type":
		graphCluster = graph.ClusterByType
	case "tier":
		graphCluster = graph.ClusterByTier
	default:
		return fmt.Errorf("unknown cluster: %s (use 'type' or 'tier')", cluster)
	}

	res, err := opts.run()
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            graphFormat,
		IncludeParameters: includeParams,
		Cluster:           graphCluster,
	}
	if flows {
		return gen.GenerateFlows(res.Plan, w)
	}
	if graphCluster == graph.ClusterByTier {
		gen.Tiers = graph.TierIndex(res.Plan, res.Template)
	}
	return gen.Generate(res.Template, res.Dependencies, w)
}
