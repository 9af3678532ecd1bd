package acl

import (
	"fmt"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// check enforces that rule names map to distinct logical IDs within the ACL,
// and numbering within each direction: numbers are unique and in range,
// primary enumerated numbers stay below the lowest fixed number, and
// optional rules sort after every primary rule.
func (b *builder) check() error {
	byID := make(map[string]Rule, len(b.acl.Rules))
	for _, r := range b.acl.Rules {
		id := serialize.LogicalID(r.Name)
		if other, ok := byID[id]; ok {
			return &tiernet.RuleConflictError{ACL: b.acl.Name, Rule: r.Name, Other: other.Name, Number: r.Number,
				Reason: "rules share the name " + id + ", give the flows distinct service labels"}
		}
		byID[id] = r
	}
	for _, dir := range []Direction{Ingress, Egress} {
		rules := b.acl.byDirection(dir)
		byNumber := make(map[int]Rule)
		minFixed, maxPrimary := MaxRuleNumber+1, 0
		for _, r := range rules {
			if r.Number < 1 || r.Number > MaxRuleNumber {
				return &tiernet.RuleConflictError{ACL: b.acl.Name, Rule: r.Name, Number: r.Number,
					Reason: fmt.Sprintf("rule number outside 1..%d", MaxRuleNumber)}
			}
			if other, ok := byNumber[r.Number]; ok {
				return &tiernet.RuleConflictError{ACL: b.acl.Name, Rule: r.Name, Other: other.Name, Number: r.Number,
					Reason: fmt.Sprintf("duplicate %s rule number", dir)}
			}
			byNumber[r.Number] = r
			if !r.Enumerated && r.Number < minFixed {
				minFixed = r.Number
			}
			if !r.Optional && r.Number > maxPrimary {
				maxPrimary = r.Number
			}
		}
		for _, r := range rules {
			if r.Enumerated && !r.Optional && r.Number >= minFixed {
				return &tiernet.RuleConflictError{ACL: b.acl.Name, Rule: r.Name, Number: r.Number,
					Reason: fmt.Sprintf("per-subnet rules reach fixed number %d", minFixed)}
			}
			if r.Optional && r.Number <= maxPrimary {
				return &tiernet.RuleConflictError{ACL: b.acl.Name, Rule: r.Name, Number: r.Number,
					Reason: fmt.Sprintf("optional rule must be numbered above primary rule %d", maxPrimary)}
			}
		}
	}
	return nil
}

// VerifySymmetry checks that every forward rule has an ephemeral return rule
// in the opposite direction of the same ACL, and that every tier-to-tier
// forward rule is matched by the peer tier's ACL for each of this tier's subnets.
// A primary forward rule is never satisfied by an optional return rule.
func VerifySymmetry(acls []ACL) error {
	byTier := make(map[string]ACL, len(acls))
	for _, a := range acls {
		byTier[a.Tier] = a
	}

	for _, a := range acls {
		for _, r := range a.Rules {
			if r.Return {
				continue
			}
			if !hasReturn(a, r) {
				return &tiernet.RuleConflictError{ACL: a.Name, Rule: r.Name, Number: r.Number,
					Reason: fmt.Sprintf("no ephemeral %s return rule for %s", r.Direction.Opposite(), r.CIDR)}
			}
			if r.Peer == "" {
				continue
			}
			peer, ok := byTier[r.Peer]
			if !ok {
				return &tiernet.RuleConflictError{ACL: a.Name, Rule: r.Name, Number: r.Number,
					Reason: fmt.Sprintf("peer tier %s has no ACL", r.Peer)}
			}
			for _, cidr := range a.SubnetCIDRs {
				if !hasRule(peer, r.Direction.Opposite(), cidr, r.Ports, r.Optional) {
					return &tiernet.RuleConflictError{ACL: peer.Name, Rule: r.Name, Number: r.Number,
						Reason: fmt.Sprintf("no %s %s rule for %s matching %s", r.Direction.Opposite(), r.Ports, cidr, a.Name)}
				}
			}
		}
	}
	return nil
}

func hasReturn(a ACL, fwd Rule) bool {
	return hasRule(a, fwd.Direction.Opposite(), fwd.CIDR, traffic.Ephemeral, fwd.Optional)
}

func hasRule(a ACL, dir Direction, cidr string, ports traffic.PortRange, allowOptional bool) bool {
	for _, r := range a.Rules {
		if r.Direction != dir || r.CIDR != cidr || r.Ports != ports || r.Action != Allow {
			continue
		}
		if r.Optional && !allowOptional {
			continue
		}
		return true
	}
	return false
}
