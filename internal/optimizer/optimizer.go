// Package optimizer reviews a plan for security, cost and reliability
// improvements. Findings are advisory and never fail a build.
package optimizer

import (
	"sort"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/plan"
)

// Categories.
const (
	CategorySecurity    = "security"
	CategoryCost        = "cost"
	CategoryReliability = "reliability"
)

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all" (or empty), "security", "cost", "reliability".
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []tiernet.OptimizeSuggestion
	Summary     tiernet.OptimizeSummary
}

// Rule is one check over a plan.
type Rule struct {
	ID       string
	Category string
	Title    string
	Check    func(p *plan.Plan) []tiernet.OptimizeSuggestion
}

// Optimize applies every rule in opts.Category to p.
func Optimize(p *plan.Plan, opts Options) (*Result, error) {
	result := &Result{}
	for _, rule := range Rules() {
		if opts.Category != "" && opts.Category != "all" && rule.Category != opts.Category {
			continue
		}
		for _, s := range rule.Check(p) {
			s.Rule = rule.ID
			s.Category = rule.Category
			if s.Title == "" {
				s.Title = rule.Title
			}
			result.Suggestions = append(result.Suggestions, s)
		}
	}
	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		a, b := result.Suggestions[i], result.Suggestions[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Subject < b.Subject
	})
	result.Summary = calculateSummary(result.Suggestions)
	return result, nil
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []tiernet.OptimizeSuggestion) tiernet.OptimizeSummary {
	summary := tiernet.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case CategorySecurity:
			summary.Security++
		case CategoryCost:
			summary.Cost++
		case CategoryReliability:
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}
