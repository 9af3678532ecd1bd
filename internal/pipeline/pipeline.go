// Package pipeline runs configuration through planning, rendering and
// template building. Every CLI command starts here.
package pipeline

import (
	"go.uber.org/zap"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/config"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/payload"
	"github.com/lex00/wetwire-tiernet-go/internal/plan"
	"github.com/lex00/wetwire-tiernet-go/internal/stack"
	"github.com/lex00/wetwire-tiernet-go/internal/template"
)

// Result holds every stage's output.
type Result struct {
	Config   *config.Config
	Plan     *plan.Plan
	Payloads *payload.Payloads
	Stack    *stack.Stack
	Template *tiernet.Template
	// Order lists logical IDs in dependency order.
	Order []string
	// Dependencies maps each logical ID to the IDs it depends on.
	Dependencies map[string][]string
}

// Plan runs the planners for cfg.
func Plan(cfg *config.Config, logger *zap.Logger) (*plan.Plan, error) {
	spec, err := cfg.NetworkSpec()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	return plan.Build(plan.Input{Network: spec, Policy: policy, Profile: cfg.Profile()}, logger)
}

// Run plans cfg, loads its payloads and builds the template.
func Run(cfg *config.Config, logger *zap.Logger) (*Result, error) {
	logger = logging.OrNop(logger)

	p, err := Plan(cfg, logger.Named("plan"))
	if err != nil {
		return nil, err
	}
	payloads, err := payload.Load(cfg.PayloadDir(), cfg.Payloads.AgentConfig, cfg.Payloads.UserData)
	if err != nil {
		return nil, err
	}
	s, err := stack.Render(p, payloads, stack.OptionsFromConfig(cfg), logger.Named("stack"))
	if err != nil {
		return nil, err
	}

	b := template.NewBuilder(s.Declarations).
		WithDescription(s.Description).
		WithParameters(s.Parameters).
		WithOutputs(s.Outputs)
	tmpl, err := b.Build()
	if err != nil {
		return nil, err
	}
	order, err := b.Order()
	if err != nil {
		return nil, err
	}
	deps := make(map[string][]string, len(order))
	for _, name := range order {
		deps[name], _ = b.Dependencies(name)
	}

	logger.Info("template built",
		zap.Int("resources", len(tmpl.Resources)),
		zap.Strings("payloads", payloads.Files))

	return &Result{
		Config:       cfg,
		Plan:         p,
		Payloads:     payloads,
		Stack:        s,
		Template:     tmpl,
		Order:        order,
		Dependencies: deps,
	}, nil
}
