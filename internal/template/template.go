// Package template builds a CloudFormation template from typed declarations.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// ErrCycle is returned when declarations depend on each other in a loop.
var ErrCycle = errors.New("circular dependency detected")

// subRef matches ${Name} and ${Name.Attribute} in Fn::Sub strings, but not ${!Literal}.
var subRef = regexp.MustCompile(`\$\{([A-Za-z0-9:]+)(?:\.[A-Za-z0-9.]+)?\}`)

// Builder constructs CloudFormation templates from declarations.
type Builder struct {
	decls       []tiernet.Declaration
	description string
	parameters  map[string]tiernet.Parameter
	outputs     map[string]tiernet.Output

	props map[string]map[string]any
	deps  map[string][]string
}

// NewBuilder creates a template builder for decls.
func NewBuilder(decls []tiernet.Declaration) *Builder {
	return &Builder{
		decls:      decls,
		parameters: make(map[string]tiernet.Parameter),
		outputs:    make(map[string]tiernet.Output),
	}
}

// WithDescription sets the template description.
func (b *Builder) WithDescription(description string) *Builder {
	b.description = description
	return b
}

// WithParameters adds template parameters.
func (b *Builder) WithParameters(params map[string]tiernet.Parameter) *Builder {
	for name, p := range params {
		b.parameters[name] = p
	}
	return b
}

// WithOutputs adds template outputs.
func (b *Builder) WithOutputs(outputs map[string]tiernet.Output) *Builder {
	for name, o := range outputs {
		b.outputs[name] = o
	}
	return b
}

// Build serializes every declaration and checks that each reference
// resolves and the dependency graph is acyclic.
func (b *Builder) Build() (*tiernet.Template, error) {
	order, err := b.Order()
	if err != nil {
		return nil, err
	}

	template := &tiernet.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]tiernet.ResourceDef, len(order)),
	}
	if len(b.parameters) > 0 {
		template.Parameters = b.parameters
	}

	byName := b.byName()
	for _, name := range order {
		d := byName[name]
		template.Resources[name] = tiernet.ResourceDef{
			Type:         d.Resource.ResourceType(),
			Properties:   b.props[name],
			DependsOn:    sortedCopy(d.DependsOn),
			UpdatePolicy: d.UpdatePolicy,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]tiernet.Output, len(b.outputs))
		for name, o := range b.outputs {
			out, err := b.serializeOutput(name, o)
			if err != nil {
				return nil, err
			}
			template.Outputs[name] = out
		}
	}

	return template, nil
}

// Order returns the logical IDs in dependency order. Ties are broken by name.
func (b *Builder) Order() ([]string, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}
	return b.topologicalSort()
}

// Dependencies returns the logical IDs that name depends on.
func (b *Builder) Dependencies(name string) ([]string, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}
	return b.deps[name], nil
}

func (b *Builder) prepare() error {
	if b.props != nil {
		return nil
	}

	props := make(map[string]map[string]any, len(b.decls))
	deps := make(map[string][]string, len(b.decls))
	for _, d := range b.decls {
		if d.Name == "" || d.Resource == nil {
			return fmt.Errorf("declaration %q has no name or resource", d.Name)
		}
		if _, dup := props[d.Name]; dup {
			return fmt.Errorf("duplicate logical ID %s", d.Name)
		}
		p, err := serialize.Resource(d.Resource)
		if err != nil {
			return fmt.Errorf("serializing %s: %w", d.Name, err)
		}
		props[d.Name] = p
	}

	for _, d := range b.decls {
		refs := make(map[string]bool)
		collectRefs(props[d.Name], refs)
		for _, dep := range d.DependsOn {
			if _, ok := props[dep]; !ok {
				return fmt.Errorf("%s: DependsOn unknown resource %s", d.Name, dep)
			}
			refs[dep] = true
		}
		for ref := range refs {
			if _, ok := props[ref]; ok {
				if ref != d.Name {
					deps[d.Name] = append(deps[d.Name], ref)
				}
				continue
			}
			if err := b.checkRef(d.Name, ref); err != nil {
				return err
			}
		}
		sort.Strings(deps[d.Name])
	}

	b.props, b.deps = props, deps
	return nil
}

func (b *Builder) checkRef(from, ref string) error {
	if intrinsics.IsPseudo(ref) {
		return nil
	}
	if _, ok := b.parameters[ref]; ok {
		return nil
	}
	return fmt.Errorf("%s: reference to unknown resource %s", from, ref)
}

func (b *Builder) serializeOutput(name string, o tiernet.Output) (tiernet.Output, error) {
	value, err := normalize(o.Value)
	if err != nil {
		return o, fmt.Errorf("serializing output %s: %w", name, err)
	}
	refs := make(map[string]bool)
	collectRefs(value, refs)
	for ref := range refs {
		if _, ok := b.props[ref]; ok {
			continue
		}
		if err := b.checkRef("output "+name, ref); err != nil {
			return o, err
		}
	}
	o.Value = value
	if o.Export != nil {
		exportName, err := normalize(o.Export.Name)
		if err != nil {
			return o, fmt.Errorf("serializing output %s: %w", name, err)
		}
		o.Export = &tiernet.OutputName{Name: exportName}
	}
	return o, nil
}

// collectRefs records every logical ID named by Ref, Fn::GetAtt or Fn::Sub.
func collectRefs(value any, refs map[string]bool) {
	switch v := value.(type) {
	case map[string]any:
		if name, ok := v["Ref"].(string); ok {
			refs[name] = true
			return
		}
		if att, ok := v["Fn::GetAtt"]; ok {
			switch a := att.(type) {
			case []any:
				if len(a) > 0 {
					if name, ok := a[0].(string); ok {
						refs[name] = true
					}
				}
			case string:
				refs[strings.SplitN(a, ".", 2)[0]] = true
			}
			return
		}
		if sub, ok := v["Fn::Sub"]; ok {
			collectSubRefs(sub, refs)
			return
		}
		for _, val := range v {
			collectRefs(val, refs)
		}
	case []any:
		for _, elem := range v {
			collectRefs(elem, refs)
		}
	}
}

func collectSubRefs(sub any, refs map[string]bool) {
	var body string
	vars := map[string]bool{}
	switch s := sub.(type) {
	case string:
		body = s
	case []any:
		if len(s) > 0 {
			body, _ = s[0].(string)
		}
		if len(s) > 1 {
			if m, ok := s[1].(map[string]any); ok {
				for k, val := range m {
					vars[k] = true
					collectRefs(val, refs)
				}
			}
		}
	}
	for _, m := range subRef.FindAllStringSubmatch(body, -1) {
		if !vars[m[1]] {
			refs[m[1]] = true
		}
	}
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.props {
		graph[name] = nil
		inDegree[name] = 0
	}
	for name, deps := range b.deps {
		for _, dep := range deps {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.props) {
		return nil, b.detectCycle()
	}
	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stack, cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		for _, dep := range b.deps[node] {
			if onPath[dep] {
				for i, n := range stack {
					if n == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
		return false
	}

	names := make([]string, 0, len(b.props))
	for name := range b.props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] && visit(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
	}
	return ErrCycle
}

func (b *Builder) byName() map[string]tiernet.Declaration {
	m := make(map[string]tiernet.Declaration, len(b.decls))
	for _, d := range b.decls {
		m[d.Name] = d
	}
	return m
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// ToJSON serializes a template to indented JSON.
func ToJSON(t *tiernet.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes a template to YAML.
func ToYAML(t *tiernet.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
