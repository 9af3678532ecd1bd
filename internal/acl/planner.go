package acl

import (
	"fmt"

	"go.uber.org/zap"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Plan expands policy into one ACL per tier of topo, in tier order.
//
// Internet flows produce fixed-number any-IPv4 rules. Tier-to-tier flows
// produce one rule per peer subnet, numbered by a fold that starts at
// EnumeratedBase and continues across peers within each ACL direction.
// Identical rules collapse to the first one emitted. Optional flows are
// numbered and checked even when profile leaves them out.
func Plan(topo *network.Topology, policy traffic.Policy, profile traffic.Profile, logger *zap.Logger) ([]ACL, error) {
	logger = logging.OrNop(logger)
	if err := policy.Validate(); err != nil {
		return nil, &tiernet.ConfigError{Field: "policy", Reason: err.Error(), Err: err}
	}

	builders := make(map[string]*builder, len(topo.Tiers))
	var order []*builder
	for _, tier := range topo.Tiers {
		b := newBuilder(tier)
		builders[tier.Spec.Name] = b
		order = append(order, b)
	}

	for _, flow := range policy.Ordered() {
		if err := expand(flow, topo, builders); err != nil {
			return nil, err
		}
	}

	acls := make([]ACL, 0, len(order))
	for _, b := range order {
		b.numberOptional()
		if err := b.check(); err != nil {
			return nil, err
		}
		acl := b.acl
		if !profile.DirectAccess {
			acl.Rules = withoutOptional(acl.Rules)
		}
		acls = append(acls, acl)
		logger.Debug("planned network acl",
			zap.String("acl", acl.Name),
			zap.Int("ingress", len(acl.Ingress())),
			zap.Int("egress", len(acl.Egress())))
	}

	if err := VerifySymmetry(acls); err != nil {
		return nil, err
	}
	return acls, nil
}

// Name returns the ACL name of a tier.
func Name(tier string) string { return tier + "_nacl" }

type builder struct {
	acl  ACL
	next map[Direction]int
	seen map[string]int
}

func newBuilder(tier network.SubnetTier) *builder {
	name := Name(tier.Spec.Name)
	b := &builder{
		acl: ACL{
			Name: name,
			ID:   serialize.LogicalID(name),
			Tier: tier.Spec.Name,
		},
		next: map[Direction]int{Ingress: EnumeratedBase, Egress: EnumeratedBase},
		seen: make(map[string]int),
	}
	for _, s := range tier.Subnets {
		b.acl.SubnetIDs = append(b.acl.SubnetIDs, s.ID)
		b.acl.SubnetCIDRs = append(b.acl.SubnetCIDRs, s.CIDR.String())
	}
	return b
}

// add appends r unless an identical rule exists. Primary enumerated rules
// take the next number of their direction; optional ones are numbered by
// numberOptional once every primary rule is known.
func (b *builder) add(r Rule) {
	r.Action = Allow
	if _, dup := b.seen[r.key()]; dup {
		return
	}
	if r.Enumerated && !r.Optional {
		r.Number = b.next[r.Direction]
		b.next[r.Direction]++
	}
	b.seen[r.key()] = len(b.acl.Rules)
	b.acl.Rules = append(b.acl.Rules, r)
}

// numberOptional folds optional enumerated rules upward from just above the
// highest primary number of their direction, skipping numbers in use.
func (b *builder) numberOptional() {
	for _, dir := range []Direction{Ingress, Egress} {
		taken := make(map[int]bool)
		next := EnumeratedBase
		for _, r := range b.acl.Rules {
			if r.Direction != dir || (r.Enumerated && r.Optional) {
				continue
			}
			taken[r.Number] = true
			if !r.Optional && r.Number >= next {
				next = r.Number + 1
			}
		}
		for i := range b.acl.Rules {
			r := &b.acl.Rules[i]
			if r.Direction != dir || !r.Enumerated || !r.Optional {
				continue
			}
			for taken[next] {
				next++
			}
			r.Number = next
			taken[next] = true
		}
	}
}

func expand(flow traffic.Flow, topo *network.Topology, builders map[string]*builder) error {
	svc := flow.Name()
	lookup := func(e traffic.Endpoint) (*builder, *network.SubnetTier, error) {
		tier, ok := topo.Tier(string(e))
		if !ok {
			return nil, nil, tiernet.NewConfigError("flow", flow.String(), "unknown tier %q", e)
		}
		return builders[tier.Spec.Name], tier, nil
	}

	switch {
	case flow.From.IsInternet():
		to, _, err := lookup(flow.To)
		if err != nil {
			return err
		}
		to.add(Rule{
			Name: fmt.Sprintf("Incoming_%s_Internet", svc), Number: flow.Rule,
			Direction: Ingress, CIDR: traffic.AnyIPv4, Ports: flow.Ports, Optional: flow.Optional,
		})
		to.add(Rule{
			Name: fmt.Sprintf("Outgoing_%s_response_Internet", svc), Number: flow.ReturnNumber(),
			Direction: Egress, CIDR: traffic.AnyIPv4, Ports: traffic.Ephemeral, Optional: flow.Optional, Return: true,
		})

	case flow.To.IsInternet():
		from, _, err := lookup(flow.From)
		if err != nil {
			return err
		}
		from.add(Rule{
			Name: fmt.Sprintf("Outgoing_%s_request_Internet", svc), Number: flow.Rule,
			Direction: Egress, CIDR: traffic.AnyIPv4, Ports: flow.Ports, Optional: flow.Optional,
		})
		from.add(Rule{
			Name: fmt.Sprintf("Incoming_%s_response_Internet", svc), Number: flow.ReturnNumber(),
			Direction: Ingress, CIDR: traffic.AnyIPv4, Ports: traffic.Ephemeral, Optional: flow.Optional, Return: true,
		})

	default:
		from, fromTier, err := lookup(flow.From)
		if err != nil {
			return err
		}
		to, toTier, err := lookup(flow.To)
		if err != nil {
			return err
		}
		for _, s := range toTier.Subnets {
			from.add(Rule{
				Name: fmt.Sprintf("Outgoing_%s_forward_%s", svc, s.ID), Direction: Egress,
				CIDR: s.CIDR.String(), Ports: flow.Ports, Optional: flow.Optional,
				Peer: toTier.Spec.Name, PeerSubnet: s.ID, Enumerated: true,
			})
		}
		for _, s := range toTier.Subnets {
			from.add(Rule{
				Name: fmt.Sprintf("Incoming_%s_response_%s", svc, s.ID), Direction: Ingress,
				CIDR: s.CIDR.String(), Ports: traffic.Ephemeral, Optional: flow.Optional,
				Peer: toTier.Spec.Name, PeerSubnet: s.ID, Enumerated: true, Return: true,
			})
		}
		for _, s := range fromTier.Subnets {
			to.add(Rule{
				Name: fmt.Sprintf("Incoming_%s_forward_%s", svc, s.ID), Direction: Ingress,
				CIDR: s.CIDR.String(), Ports: flow.Ports, Optional: flow.Optional,
				Peer: fromTier.Spec.Name, PeerSubnet: s.ID, Enumerated: true,
			})
		}
		for _, s := range fromTier.Subnets {
			to.add(Rule{
				Name: fmt.Sprintf("Outgoing_%s_response_%s", svc, s.ID), Direction: Egress,
				CIDR: s.CIDR.String(), Ports: traffic.Ephemeral, Optional: flow.Optional,
				Peer: fromTier.Spec.Name, PeerSubnet: s.ID, Enumerated: true, Return: true,
			})
		}
	}
	return nil
}

func withoutOptional(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
