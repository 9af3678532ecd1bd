package secgroup

import (
	"fmt"

	"go.uber.org/zap"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Name returns the security group name of a tier.
func Name(tier string) string { return tier + "_sg" }

// Plan builds one group per tier of topo, in tier order, from the flows
// profile enables.
//
// Every flow is checked first, including optional ones: a flow naming a tier
// without a group, or a primary internet flow into an isolated tier, is a
// *tiernet.ConfigError.
func Plan(topo *network.Topology, policy traffic.Policy, profile traffic.Profile, logger *zap.Logger) ([]Group, error) {
	logger = logging.OrNop(logger)
	if err := policy.Validate(); err != nil {
		return nil, &tiernet.ConfigError{Field: "policy", Reason: err.Error(), Err: err}
	}

	groups := make([]*Group, 0, len(topo.Tiers))
	byTier := make(map[string]*Group, len(topo.Tiers))
	for _, tier := range topo.Tiers {
		name := Name(tier.Spec.Name)
		g := &Group{Name: name, ID: serialize.LogicalID(name), Tier: tier.Spec.Name}
		groups = append(groups, g)
		byTier[tier.Spec.Name] = g
	}

	for _, flow := range policy.Ordered() {
		if err := checkFlow(flow, topo, byTier); err != nil {
			return nil, err
		}
	}

	seen := make(map[*Group]map[string]bool)
	add := func(g *Group, r Rule) {
		if seen[g] == nil {
			seen[g] = make(map[string]bool)
		}
		if seen[g][r.key()] {
			return
		}
		seen[g][r.key()] = true
		if r.Direction == Ingress {
			g.Ingress = append(g.Ingress, r)
		} else {
			g.Egress = append(g.Egress, r)
		}
	}

	for _, flow := range policy.Active(profile) {
		svc := flow.Name()
		switch {
		case flow.From.IsInternet():
			add(byTier[string(flow.To)], Rule{
				Direction: Ingress, Peer: AnyIPv4(), Ports: flow.Ports, Optional: flow.Optional,
				Description: describe(flow.IngressDescription, "Allow %s requests from Internet.", svc),
			})
		case flow.To.IsInternet():
			add(byTier[string(flow.From)], Rule{
				Direction: Egress, Peer: AnyIPv4(), Ports: flow.Ports, Optional: flow.Optional,
				Description: describe(flow.EgressDescription, "Allow %s requests to Internet.", svc),
			})
		default:
			from, to := byTier[string(flow.From)], byTier[string(flow.To)]
			add(from, Rule{
				Direction: Egress, Peer: GroupPeer(to.Name), Ports: flow.Ports, Optional: flow.Optional,
				Description: describe(flow.EgressDescription, "Forward %s requests to %s.", svc, to.Tier),
			})
			add(to, Rule{
				Direction: Ingress, Peer: GroupPeer(from.Name), Ports: flow.Ports, Optional: flow.Optional,
				Description: describe(flow.IngressDescription, "Allow %s forwarding from %s.", svc, from.Tier),
			})
		}
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = *g
		logger.Debug("planned security group",
			zap.String("group", g.Name),
			zap.Int("ingress", len(g.Ingress)),
			zap.Int("egress", len(g.Egress)))
	}
	return out, nil
}

func checkFlow(flow traffic.Flow, topo *network.Topology, byTier map[string]*Group) error {
	for _, e := range []traffic.Endpoint{flow.From, flow.To} {
		if e.IsInternet() {
			continue
		}
		if _, ok := byTier[string(e)]; !ok {
			return tiernet.NewConfigError("flow", flow.String(), "no security group for tier %q", e)
		}
	}
	if flow.From.IsInternet() && !flow.Optional {
		tier, _ := topo.Tier(string(flow.To))
		if tier.Spec.Exposure == network.ExposureIsolated {
			return tiernet.NewConfigError("flow", flow.String(),
				"isolated tier %s only accepts internet traffic from optional flows", tier.Spec.Name)
		}
	}
	return nil
}

func describe(given, format string, args ...any) string {
	if given != "" {
		return given
	}
	return fmt.Sprintf(format, args...)
}
