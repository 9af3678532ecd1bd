// Package graph renders the built template's dependency graph and the plan's
// traffic flows as DOT or Mermaid.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/plan"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Cluster selects how resource nodes are grouped.
type Cluster string

const (
	ClusterNone Cluster = ""
	// ClusterByType groups resources by AWS service.
	ClusterByType Cluster = "type"
	// ClusterByTier groups resources by the subnet tier that owns them.
	ClusterByTier Cluster = "tier"
)

// Generator creates graphs.
type Generator struct {
	// IncludeParameters includes template parameters as dashed nodes.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	Cluster Cluster

	// Tiers maps logical IDs to tier names for ClusterByTier. See TierIndex.
	Tiers map[string]string
}

// Generate writes the resource dependency graph of t. deps maps each
// logical ID to the IDs it depends on.
func (g *Generator) Generate(t *tiernet.Template, deps map[string][]string, w io.Writer) error {
	return g.write(g.buildGraph(t, deps), w)
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(t *tiernet.Template, deps map[string][]string) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, deps, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// GenerateFlows writes the plan's traffic flows: one node per tier plus the
// internet, one edge per flow. Flows the profile leaves inactive are dashed.
func (g *Generator) GenerateFlows(p *plan.Plan, w io.Writer) error {
	graph := newGraph("LR")

	internet := graph.Node(string(traffic.Internet))
	internet.Attr("shape", "ellipse")
	internet.Label("Internet")

	for _, tier := range p.Topology.Tiers {
		n := graph.Node(tier.Spec.Name)
		n.Label(tier.Spec.Name + "\\n" + string(tier.Spec.Exposure) + "\\n" + strings.Join(tier.CIDRs(), "\\n"))
	}

	active := make(map[string]bool)
	for _, f := range p.Policy.Active(p.Profile) {
		active[f.String()] = true
	}
	for _, f := range p.Policy.Flows {
		e := graph.Edge(graph.Node(string(f.From)), graph.Node(string(f.To)), f.Name()+" "+f.Ports.String())
		if !active[f.String()] {
			e.Attr("style", "dashed")
			e.Attr("color", "gray")
		}
	}
	return g.write(graph, w)
}

func (g *Generator) write(graph *dot.Graph, w io.Writer) error {
	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}
	_, err := io.WriteString(w, output)
	return err
}

func newGraph(rankdir string) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", rankdir)
	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})
	return graph
}

func (g *Generator) buildGraph(t *tiernet.Template, deps map[string][]string) *dot.Graph {
	graph := newGraph("TB")

	names := sortedKeys(t.Resources)
	nodes := make(map[string]dot.Node, len(names))
	clusters := make(map[string]*dot.Graph)
	for _, name := range names {
		parent := graph
		if key := g.clusterKey(name, t.Resources[name].Type); key != "" {
			c, ok := clusters[key]
			if !ok {
				c = graph.Subgraph("cluster_"+key, dot.ClusterOption{})
				c.Attr("label", key)
				c.Attr("style", "rounded")
				c.Attr("bgcolor", "lightyellow")
				clusters[key] = c
			}
			parent = c
		}
		nodes[name] = parent.Node(name).Label(name + "\\n[" + t.Resources[name].Type + "]")
	}

	if g.IncludeParameters {
		for _, name := range sortedKeys(t.Parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			nodes[name] = n.Label(name)
		}
	}

	for _, name := range names {
		res := t.Resources[name]
		getAtts := make(map[string]bool)
		collectGetAtts(res.Properties, getAtts)
		explicit := make(map[string]bool)
		for _, d := range res.DependsOn {
			explicit[d] = true
		}
		for _, dep := range deps[name] {
			e := graph.Edge(nodes[name], nodes[dep])
			switch {
			case getAtts[dep]:
				e.Attr("color", "blue")
			case explicit[dep]:
				e.Attr("style", "dashed")
			}
		}
		if g.IncludeParameters {
			refs := make(map[string]bool)
			collectRefs(res.Properties, refs)
			for _, p := range sortedKeys(t.Parameters) {
				if refs[p] {
					graph.Edge(nodes[name], nodes[p])
				}
			}
		}
	}
	return graph
}

func (g *Generator) clusterKey(name, cfType string) string {
	switch g.Cluster {
	case ClusterByType:
		return service(cfType)
	case ClusterByTier:
		return g.Tiers[name]
	}
	return ""
}

// TierIndex maps every tier-owned logical ID in p to its tier: subnets,
// route table associations, ACLs and their entries, and security groups.
// IDs are matched by prefix, so it covers resources derived from them.
func TierIndex(p *plan.Plan, t *tiernet.Template) map[string]string {
	type owner struct{ prefix, tier string }
	var owners []owner
	for _, s := range p.Topology.Subnets() {
		owners = append(owners, owner{s.ID, s.Tier})
	}
	for _, a := range p.ACLs {
		owners = append(owners, owner{a.ID, a.Tier})
	}
	for _, sg := range p.SecurityGroups {
		owners = append(owners, owner{sg.ID, sg.Tier})
	}
	// Longest prefix wins.
	sort.Slice(owners, func(i, j int) bool { return len(owners[i].prefix) > len(owners[j].prefix) })

	index := make(map[string]string)
	for name := range t.Resources {
		for _, o := range owners {
			if strings.HasPrefix(name, o.prefix) {
				index[name] = o.tier
				break
			}
		}
	}
	return index
}

// service extracts the service from a CloudFormation type.
// e.g., "AWS::EC2::Subnet" -> "EC2"
func service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func collectGetAtts(v any, out map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if att, ok := val["Fn::GetAtt"].([]any); ok && len(att) > 0 {
			if name, ok := att[0].(string); ok {
				out[name] = true
			}
			return
		}
		for _, e := range val {
			collectGetAtts(e, out)
		}
	case []any:
		for _, e := range val {
			collectGetAtts(e, out)
		}
	}
}

func collectRefs(v any, out map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := val["Ref"].(string); ok {
			out[name] = true
			return
		}
		for _, e := range val {
			collectRefs(e, out)
		}
	case []any:
		for _, e := range val {
			collectRefs(e, out)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
