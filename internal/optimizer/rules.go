package optimizer

import (
	"fmt"
	"math/bits"

	"github.com/shopspring/decimal"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/acl"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/plan"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Thresholds used by the rules.
var (
	lowUtilization = decimal.NewFromInt(25)
	// ruleHeadroom is the minimum gap between the last enumerated ACL rule
	// and the first fixed one.
	ruleHeadroom = 10
)

// Rules returns every rule in evaluation order.
func Rules() []Rule {
	return []Rule{
		{ID: "TN-SEC-001", Category: CategorySecurity, Title: "Isolated tier reachable from the internet", Check: directAccess},
		{ID: "TN-SEC-002", Category: CategorySecurity, Title: "SSH open to the internet", Check: sshOpen},
		{ID: "TN-COST-001", Category: CategoryCost, Title: "Base block larger than needed", Check: oversizedBase},
		{ID: "TN-REL-001", Category: CategoryReliability, Title: "Single availability zone", Check: singleAZ},
		{ID: "TN-REL-002", Category: CategoryReliability, Title: "Tier has no traffic flows", Check: silentTier},
		{ID: "TN-REL-003", Category: CategoryReliability, Title: "Little room for enumerated ACL rules", Check: ruleNumberHeadroom},
	}
}

func directAccess(p *plan.Plan) []tiernet.OptimizeSuggestion {
	if !p.Profile.DirectAccess {
		return nil
	}
	var out []tiernet.OptimizeSuggestion
	for _, g := range p.SecurityGroups {
		tier, ok := p.Topology.Tier(g.Tier)
		if !ok || tier.Spec.Exposure != network.ExposureIsolated {
			continue
		}
		for _, r := range g.OpenToInternet() {
			out = append(out, tiernet.OptimizeSuggestion{
				Subject:     g.Name,
				Severity:    "high",
				Description: fmt.Sprintf("The %s profile allows %s on port %s from %s into isolated tier %s.", p.Profile.Name(), r.Ports.Service(), r.Ports, r.Peer, g.Tier),
				Suggestion:  "Turn traffic.direct_access off outside of testing.",
			})
		}
	}
	return out
}

func sshOpen(p *plan.Plan) []tiernet.OptimizeSuggestion {
	var out []tiernet.OptimizeSuggestion
	for _, g := range p.SecurityGroups {
		for _, r := range g.OpenToInternet() {
			if r.Ports.From <= traffic.SSH.From && traffic.SSH.To <= r.Ports.To {
				out = append(out, tiernet.OptimizeSuggestion{
					Subject:     g.Name,
					Severity:    "medium",
					Description: fmt.Sprintf("%s accepts port 22 from %s.", g.Name, r.Peer),
					Suggestion:  "Use Session Manager, which the instance role already allows, instead of inbound SSH.",
				})
			}
		}
	}
	return out
}

func oversizedBase(p *plan.Plan) []tiernet.OptimizeSuggestion {
	topo := p.Topology
	util := topo.Utilization()
	if util.GreaterThanOrEqual(lowUtilization) {
		return nil
	}
	ones, _ := topo.Base.Mask().Size()
	used := uint64(1)<<uint(32-ones) - topo.Free()
	suggested := fitPrefix(topo, 32-(64-bits.LeadingZeros64(used-1)))
	if suggested <= ones {
		return nil
	}
	return []tiernet.OptimizeSuggestion{{
		Subject:     topo.Base.String(),
		Severity:    "low",
		Description: fmt.Sprintf("Subnets use %s%% of %s; %d addresses are unallocated.", util.StringFixed(2), topo.Base, topo.Free()),
		Suggestion:  fmt.Sprintf("A /%d base block would hold every subnet and leave the rest of the address space to other VPCs.", suggested),
	}}
}

// fitPrefix returns the longest prefix, starting from longest, whose block
// at the same base address still plans every tier.
func fitPrefix(topo *network.Topology, longest int) int {
	ones, _ := topo.Base.Mask().Size()
	for prefix := longest; prefix > ones; prefix-- {
		spec := topo.Spec
		spec.CIDR = fmt.Sprintf("%s/%d", topo.Base.IP(), prefix)
		if _, err := network.Plan(spec, nil); err == nil {
			return prefix
		}
	}
	return ones
}

func singleAZ(p *plan.Plan) []tiernet.OptimizeSuggestion {
	if p.Topology.Spec.MaxAZs > 1 {
		return nil
	}
	return []tiernet.OptimizeSuggestion{{
		Subject:     p.Topology.VPCID,
		Severity:    "high",
		Description: "Every tier has one subnet, so one zone outage takes the whole stack down.",
		Suggestion:  "Set network.max_azs to 2 or more.",
	}}
}

func silentTier(p *plan.Plan) []tiernet.OptimizeSuggestion {
	var out []tiernet.OptimizeSuggestion
	for _, a := range p.ACLs {
		if len(a.Rules) > 0 {
			continue
		}
		out = append(out, tiernet.OptimizeSuggestion{
			Subject:     a.Name,
			Severity:    "medium",
			Description: fmt.Sprintf("No flow names tier %s, so its ACL denies all traffic.", a.Tier),
			Suggestion:  "Add a flow for the tier or remove it.",
		})
	}
	return out
}

func ruleNumberHeadroom(p *plan.Plan) []tiernet.OptimizeSuggestion {
	var out []tiernet.OptimizeSuggestion
	for _, a := range p.ACLs {
		for _, rules := range [][]acl.Rule{a.Ingress(), a.Egress()} {
			maxEnum, minFixed := 0, 0
			for _, r := range rules {
				if r.Enumerated {
					maxEnum = max(maxEnum, r.Number)
				} else if minFixed == 0 || r.Number < minFixed {
					minFixed = r.Number
				}
			}
			if maxEnum == 0 || minFixed == 0 || minFixed-maxEnum > ruleHeadroom {
				continue
			}
			out = append(out, tiernet.OptimizeSuggestion{
				Subject:     fmt.Sprintf("%s %s", a.Name, rules[0].Direction),
				Severity:    "low",
				Description: fmt.Sprintf("Enumerated rules reach %d and the first fixed rule is %d.", maxEnum, minFixed),
				Suggestion:  "Raise the fixed rule numbers before adding availability zones or tier-to-tier flows.",
			})
		}
	}
	return out
}
