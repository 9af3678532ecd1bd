// Package stack renders a plan and its payloads as CloudFormation declarations.
//
// Every cross-resource reference is a Ref or Fn::GetAtt, so the template
// builder can derive creation order from the declarations alone. Ordering
// that references do not imply is declared with DependsOn.
package stack

import (
	"go.uber.org/zap"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/config"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/payload"
	"github.com/lex00/wetwire-tiernet-go/internal/plan"
)

// ImageParameterName is the template parameter holding the AMI id.
const ImageParameterName = "LatestAmiId"

// Options carries the settings Render needs beyond the plan.
type Options struct {
	Description string
	// LoadBalancerTier and WebTier place the load balancer and the web
	// servers. When either is not a planned tier, the first tier-to-tier flow
	// of the policy decides.
	LoadBalancerTier string
	WebTier          string
	Compute          config.ComputeConfig
	ParameterName    string
}

// OptionsFromConfig maps the configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Description:      cfg.Stack.Description,
		LoadBalancerTier: cfg.Traffic.LoadBalancerTier,
		WebTier:          cfg.Traffic.WebTier,
		Compute:          cfg.Compute,
		ParameterName:    cfg.Payloads.ParameterName,
	}
}

// Stack is the rendered declaration set.
type Stack struct {
	Description  string
	Parameters   map[string]tiernet.Parameter
	Declarations []tiernet.Declaration
	Outputs      map[string]tiernet.Output
}

// Names returns the declared logical IDs in render order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.Declarations))
	for i, d := range s.Declarations {
		names[i] = d.Name
	}
	return names
}

// Find returns the declaration with logical ID name.
func (s *Stack) Find(name string) (tiernet.Declaration, bool) {
	for _, d := range s.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return tiernet.Declaration{}, false
}

type renderer struct {
	plan     *plan.Plan
	payloads *payload.Payloads
	opts     Options
	stack    *Stack
	lbTier   *network.SubnetTier
	webTier  *network.SubnetTier
	groupIDs map[string]string
}

// Render builds the declarations for p. It fails with a *tiernet.ConfigError
// when the load balancer and web tiers cannot be placed.
func Render(p *plan.Plan, payloads *payload.Payloads, opts Options, logger *zap.Logger) (*Stack, error) {
	logger = logging.OrNop(logger)

	r := &renderer{
		plan:     p,
		payloads: payloads,
		opts:     opts,
		stack: &Stack{
			Description: opts.Description,
			Parameters:  make(map[string]tiernet.Parameter),
			Outputs:     make(map[string]tiernet.Output),
		},
		groupIDs: make(map[string]string),
	}
	for _, g := range p.SecurityGroups {
		r.groupIDs[g.Name] = g.ID
	}

	var err error
	r.lbTier, r.webTier, err = placeTiers(p, opts)
	if err != nil {
		return nil, err
	}

	r.network()
	r.networkACLs()
	r.securityGroups()
	r.compute()
	r.outputs()

	logger.Debug("rendered stack",
		zap.Int("declarations", len(r.stack.Declarations)),
		zap.String("lb_tier", r.lbTier.Spec.Name),
		zap.String("web_tier", r.webTier.Spec.Name))
	return r.stack, nil
}

func (r *renderer) declare(name string, res tiernet.Resource, dependsOn ...string) {
	r.stack.Declarations = append(r.stack.Declarations, tiernet.Declaration{
		Name:      name,
		Resource:  res,
		DependsOn: dependsOn,
	})
}

func placeTiers(p *plan.Plan, opts Options) (*network.SubnetTier, *network.SubnetTier, error) {
	topo := p.Topology
	lb, lbOK := topo.Tier(opts.LoadBalancerTier)
	web, webOK := topo.Tier(opts.WebTier)
	if lbOK && webOK && lb != web {
		return lb, web, nil
	}
	for _, f := range p.Policy.Ordered() {
		if f.From.IsInternet() || f.To.IsInternet() || f.Optional {
			continue
		}
		lb, lbOK = topo.Tier(string(f.From))
		web, webOK = topo.Tier(string(f.To))
		if lbOK && webOK {
			return lb, web, nil
		}
	}
	return nil, nil, tiernet.NewConfigError("traffic", opts.LoadBalancerTier+" -> "+opts.WebTier,
		"cannot place the load balancer: no tier-to-tier flow between planned tiers")
}
