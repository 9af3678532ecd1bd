// Package secgroup plans one stateful security group per subnet tier.
//
// Groups reference each other by identity rather than by CIDR, so rules keep
// working when subnets are renumbered.
package secgroup

import (
	"fmt"

	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Direction of a rule relative to the group.
type Direction string

const (
	Ingress Direction = "ingress"
	Egress  Direction = "egress"
)

// PeerKind selects what a rule's peer refers to.
type PeerKind int

const (
	PeerAnyIPv4 PeerKind = iota
	PeerCIDR
	PeerGroup
)

// Peer is the other side of a rule: any IPv4, a CIDR or another group.
type Peer struct {
	Kind PeerKind
	// CIDR is set for PeerAnyIPv4 and PeerCIDR.
	CIDR string
	// Group is the peer group name for PeerGroup.
	Group string
}

// AnyIPv4 is the 0.0.0.0/0 peer.
func AnyIPv4() Peer { return Peer{Kind: PeerAnyIPv4, CIDR: traffic.AnyIPv4} }

// CIDR is a fixed address block peer.
func CIDR(block string) Peer {
	if block == traffic.AnyIPv4 {
		return AnyIPv4()
	}
	return Peer{Kind: PeerCIDR, CIDR: block}
}

// GroupPeer references another group by name.
func GroupPeer(name string) Peer { return Peer{Kind: PeerGroup, Group: name} }

// IsGroup reports whether the peer is a group reference.
func (p Peer) IsGroup() bool { return p.Kind == PeerGroup }

func (p Peer) String() string {
	if p.IsGroup() {
		return "sg:" + p.Group
	}
	return p.CIDR
}

// Protocol is the only IP protocol the planner emits.
const Protocol = "tcp"

// Rule is one security group rule.
type Rule struct {
	Direction   Direction
	Peer        Peer
	Ports       traffic.PortRange
	Description string
	Optional    bool
}

func (r Rule) key() string {
	return fmt.Sprintf("%s|%s|%s", r.Direction, r.Peer, r.Ports)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %s %q", r.Direction, r.Peer, r.Ports, r.Description)
}

// Group is the security group of one tier.
type Group struct {
	// Name is "<tier>_sg".
	Name string
	// ID is the CloudFormation logical ID.
	ID   string
	Tier string
	// AllowAllOutbound is always false; egress is explicit.
	AllowAllOutbound bool
	Ingress          []Rule
	Egress           []Rule
}

// Description is the group description.
func (g Group) Description() string {
	return fmt.Sprintf("Security group for tier %s", g.Tier)
}

// InlineIngress returns ingress rules whose peer is an address block.
func (g Group) InlineIngress() []Rule { return filter(g.Ingress, false) }

// InlineEgress returns egress rules whose peer is an address block.
func (g Group) InlineEgress() []Rule { return filter(g.Egress, false) }

// GroupIngress returns ingress rules that reference another group.
func (g Group) GroupIngress() []Rule { return filter(g.Ingress, true) }

// GroupEgress returns egress rules that reference another group.
func (g Group) GroupEgress() []Rule { return filter(g.Egress, true) }

// OpenToInternet returns ingress rules from any IPv4.
func (g Group) OpenToInternet() []Rule {
	var out []Rule
	for _, r := range g.Ingress {
		if r.Peer.Kind == PeerAnyIPv4 {
			out = append(out, r)
		}
	}
	return out
}

func filter(rules []Rule, group bool) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Peer.IsGroup() == group {
			out = append(out, r)
		}
	}
	return out
}
