// Package validation checks a built template before it is handed to
// CloudFormation.
//
// Two passes run:
//   - structural checks on the plan-derived resources (rule number ranges,
//     duplicate ACL entries, dangling DependsOn)
//   - cfn-lint-go against the serialized template (library dependency)
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/acl"
	"github.com/lex00/wetwire-tiernet-go/internal/template"
)

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// Result combines both passes.
type Result struct {
	Structure []string       `json:"structure,omitempty"`
	CfnLint   *CfnLintResult `json:"cfn_lint"`
}

// Passed reports whether neither pass found an error.
func (r *Result) Passed() bool {
	return len(r.Structure) == 0 && (r.CfnLint == nil || r.CfnLint.Passed)
}

// Errors returns structural problems followed by cfn-lint errors.
func (r *Result) Errors() []string {
	errs := append([]string(nil), r.Structure...)
	if r.CfnLint != nil {
		errs = append(errs, r.CfnLint.Errors...)
	}
	return errs
}

// Validate runs the structural checks and cfn-lint on t. A linter that
// cannot run at all is reported as a *tiernet.ProvisioningError.
func Validate(t *tiernet.Template) (*Result, error) {
	result := &Result{Structure: CheckStructure(t)}

	lintResult, err := LintTemplate(t)
	if err != nil {
		return nil, err
	}
	result.CfnLint = lintResult
	return result, nil
}

// CheckStructure returns problems cfn-lint does not catch: ACL entries
// outside 1..32766, two entries sharing an ACL, direction and number, and
// DependsOn targets that are not in the template.
func CheckStructure(t *tiernet.Template) []string {
	var problems []string
	seen := make(map[string]string)

	for _, name := range sortedNames(t) {
		res := t.Resources[name]
		for _, dep := range res.DependsOn {
			if _, ok := t.Resources[dep]; !ok {
				problems = append(problems, fmt.Sprintf("%s: DependsOn unknown resource %s", name, dep))
			}
		}
		if res.Type != "AWS::EC2::NetworkAclEntry" {
			continue
		}
		number, ok := toInt(res.Properties["RuleNumber"])
		if !ok || number < 1 || number > acl.MaxRuleNumber {
			problems = append(problems, fmt.Sprintf("%s: rule number %v outside 1..%d", name, res.Properties["RuleNumber"], acl.MaxRuleNumber))
			continue
		}
		egress, _ := res.Properties["Egress"].(bool)
		key := fmt.Sprintf("%v|%t|%d", res.Properties["NetworkAclId"], egress, number)
		if other, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("%s: rule number %d already used by %s", name, number, other))
			continue
		}
		seen[key] = name
	}
	return problems
}

// LintTemplate writes t to a temporary file and runs cfn-lint on it.
func LintTemplate(t *tiernet.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}
	dir, err := os.MkdirTemp("", "tiernet-validate-")
	if err != nil {
		return nil, &tiernet.ProvisioningError{Op: "cfn-lint", Err: err}
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &tiernet.ProvisioningError{Op: "cfn-lint", Err: err}
	}
	return RunCfnLint(path)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &CfnLintResult{
				Passed: false,
				Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
			}, nil
		}
		return nil, &tiernet.ProvisioningError{Op: "cfn-lint", Err: err}
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return nil, &tiernet.ProvisioningError{Op: "cfn-lint", Err: err}
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	for _, match := range matches {
		formatted := formatMatch(match)
		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable.
	result.Passed = len(result.Errors) == 0
	return result, nil
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, strings.Join(parts, "/"))
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	}
	return 0, false
}

func sortedNames(t *tiernet.Template) []string {
	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
