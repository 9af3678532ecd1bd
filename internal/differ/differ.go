// Package differ compares two CloudFormation templates resource by resource.
//
// Templates are normalized through JSON before comparison, so a template built
// in memory compares equal to the same template read back from disk.
package differ

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	tiernet "github.com/lex00/wetwire-tiernet-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder compares lists as multisets. Rule lists are emitted in a
	// stable order, so this only matters for hand-edited templates.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    tiernet.TemplateDiff
	Summary tiernet.DiffSummary
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool { return r.Summary.Total == 0 }

// Compare compares two templates and returns their differences.
func Compare(before, after *tiernet.Template, opts Options) (*Result, error) {
	res1, err := normalizeResources(before)
	if err != nil {
		return nil, fmt.Errorf("normalizing first template: %w", err)
	}
	res2, err := normalizeResources(after)
	if err != nil {
		return nil, fmt.Errorf("normalizing second template: %w", err)
	}

	result := &Result{}
	for name, def := range res2 {
		if _, ok := res1[name]; !ok {
			result.Diff.Added = append(result.Diff.Added, tiernet.DiffEntry{Resource: name, Type: typeOf(def)})
		}
	}
	for name, def1 := range res1 {
		def2, ok := res2[name]
		if !ok {
			result.Diff.Removed = append(result.Diff.Removed, tiernet.DiffEntry{Resource: name, Type: typeOf(def1)})
			continue
		}
		if changes := compareValues("", def1, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, tiernet.DiffEntry{
				Resource: name,
				Type:     typeOf(def1),
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = tiernet.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified
	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}
	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}
	return Compare(t1, t2, opts)
}

// LoadTemplate loads a template from a JSON or YAML file. Files ending in
// .yaml or .yml are parsed as YAML; anything else is tried as JSON first.
func LoadTemplate(path string) (*tiernet.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var template tiernet.Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &template); err != nil {
			if yerr := yaml.Unmarshal(data, &template); yerr != nil {
				return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
			}
		}
	}
	return &template, nil
}

// WriteText prints the result as one line per changed resource.
func (r *Result) WriteText(w io.Writer) error {
	var b strings.Builder
	for _, e := range r.Diff.Added {
		fmt.Fprintf(&b, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Removed {
		fmt.Fprintf(&b, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range r.Diff.Modified {
		fmt.Fprintf(&b, "~ %s (%s)\n", e.Resource, e.Type)
		for _, c := range e.Changes {
			fmt.Fprintf(&b, "    %s\n", c)
		}
	}
	fmt.Fprintf(&b, "%d added, %d removed, %d modified\n", r.Summary.Added, r.Summary.Removed, r.Summary.Modified)
	_, err := io.WriteString(w, b.String())
	return err
}

func normalizeResources(t *tiernet.Template) (map[string]map[string]any, error) {
	data, err := json.Marshal(t.Resources)
	if err != nil {
		return nil, err
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func typeOf(def map[string]any) string {
	s, _ := def["Type"].(string)
	return s
}

// compareValues walks nested maps and reports changes by dotted path.
// Lists and scalars are compared whole.
func compareValues(prefix string, v1, v2 map[string]any, opts Options) []string {
	var changes []string
	for key, val2 := range v2 {
		path := join(prefix, key)
		val1, ok := v1[key]
		if !ok {
			changes = append(changes, path+" added")
			continue
		}
		m1, isMap1 := val1.(map[string]any)
		m2, isMap2 := val2.(map[string]any)
		if isMap1 && isMap2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareValues(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			if prefix == "" && key == "Type" {
				changes = append(changes, fmt.Sprintf("Type changed: %v → %v", val1, val2))
				continue
			}
			changes = append(changes, path+" modified")
		}
	}
	for key := range v1 {
		if _, ok := v2[key]; !ok {
			changes = append(changes, join(prefix, key)+" removed")
		}
	}
	sort.Strings(changes)
	return changes
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for k := range m {
		return k == "Ref" || strings.HasPrefix(k, "Fn::")
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring list order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = sortLists(a)
		b = sortLists(b)
	}
	return reflect.DeepEqual(a, b)
}

// sortLists orders every list by the JSON encoding of its elements.
func sortLists(v any) any {
	switch val := v.(type) {
	case []any:
		type keyed struct {
			key string
			val any
		}
		items := make([]keyed, len(val))
		for i, e := range val {
			e = sortLists(e)
			data, _ := json.Marshal(e)
			items[i] = keyed{string(data), e}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })
		result := make([]any, len(items))
		for i, it := range items {
			result[i] = it.val
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, e := range val {
			result[k] = sortLists(e)
		}
		return result
	default:
		return v
	}
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []tiernet.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
