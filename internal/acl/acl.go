// Package acl plans numbered, stateless network ACL rules per subnet tier.
package acl

import (
	"fmt"
	"sort"

	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Direction of a rule relative to the subnet.
type Direction string

const (
	Ingress Direction = "ingress"
	Egress  Direction = "egress"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Ingress {
		return Egress
	}
	return Ingress
}

// Action of a rule. Only Allow is emitted; the implicit deny-all closes the list.
type Action string

const (
	Allow Action = "allow"
	Deny  Action = "deny"
)

// EnumeratedBase is the first number handed to per-subnet rules. Numbers
// below it are left free for manual overrides.
const EnumeratedBase = 50

// MaxRuleNumber is the highest number AWS accepts.
const MaxRuleNumber = 32766

// Rule is one ACL entry.
type Rule struct {
	Name      string
	Number    int
	Direction Direction
	CIDR      string
	Ports     traffic.PortRange
	Action    Action

	// Optional rules belong to flows gated by the direct-access profile.
	Optional bool
	// Peer is the peer tier name; empty for the internet.
	Peer string
	// PeerSubnet is the logical ID of the peer subnet for enumerated rules.
	PeerSubnet string
	// Return marks the ephemeral-port return half of a flow.
	Return bool
	// Enumerated rules were numbered by the per-subnet fold.
	Enumerated bool
}

// AnyIPv4 reports whether the rule targets 0.0.0.0/0.
func (r Rule) AnyIPv4() bool { return r.CIDR == traffic.AnyIPv4 }

func (r Rule) key() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Direction, r.CIDR, r.Ports, r.Action)
}

func (r Rule) String() string {
	return fmt.Sprintf("%d %s %s %s %s (%s)", r.Number, r.Direction, r.Action, r.CIDR, r.Ports, r.Name)
}

// ACL is the network ACL of one tier.
type ACL struct {
	// Name is "<tier>_nacl".
	Name string
	// ID is the CloudFormation logical ID.
	ID   string
	Tier string
	// SubnetIDs lists the tier's subnets, each associated with this ACL.
	SubnetIDs []string
	// SubnetCIDRs lists the tier's subnet blocks in the same order.
	SubnetCIDRs []string
	Rules       []Rule
}

// Ingress returns the ingress rules ordered by number.
func (a ACL) Ingress() []Rule { return a.byDirection(Ingress) }

// Egress returns the egress rules ordered by number.
func (a ACL) Egress() []Rule { return a.byDirection(Egress) }

// Ordered returns ingress then egress rules, each ordered by number.
func (a ACL) Ordered() []Rule {
	return append(a.Ingress(), a.Egress()...)
}

// Rule looks a rule up by name.
func (a ACL) Rule(name string) (Rule, bool) {
	for _, r := range a.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func (a ACL) byDirection(d Direction) []Rule {
	var out []Rule
	for _, r := range a.Rules {
		if r.Direction == d {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
