// Package plan runs the topology, ACL and security group planners in order.
package plan

import (
	"go.uber.org/zap"

	"github.com/lex00/wetwire-tiernet-go/internal/acl"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/secgroup"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Input is everything the planners need.
type Input struct {
	Network network.NetworkSpec
	Policy  traffic.Policy
	Profile traffic.Profile
}

// Plan is the complete, immutable planning result.
type Plan struct {
	Topology       *network.Topology
	Policy         traffic.Policy
	ACLs           []acl.ACL
	SecurityGroups []secgroup.Group
	Profile        traffic.Profile
}

// Build plans the topology, then the ACLs and security groups from it.
// The first error aborts the run and no partial plan is returned.
func Build(in Input, logger *zap.Logger) (*Plan, error) {
	logger = logging.OrNop(logger)

	topo, err := network.Plan(in.Network, logger.Named("network"))
	if err != nil {
		return nil, err
	}
	acls, err := acl.Plan(topo, in.Policy, in.Profile, logger.Named("acl"))
	if err != nil {
		return nil, err
	}
	groups, err := secgroup.Plan(topo, in.Policy, in.Profile, logger.Named("secgroup"))
	if err != nil {
		return nil, err
	}

	logger.Info("plan complete",
		zap.Int("subnets", len(topo.Subnets())),
		zap.Int("acls", len(acls)),
		zap.Int("security_groups", len(groups)),
		zap.String("profile", in.Profile.Name()))

	return &Plan{
		Topology:       topo,
		Policy:         in.Policy,
		ACLs:           acls,
		SecurityGroups: groups,
		Profile:        in.Profile,
	}, nil
}

// ACL returns the ACL of tier.
func (p *Plan) ACL(tier string) (acl.ACL, bool) {
	for _, a := range p.ACLs {
		if a.Tier == tier {
			return a, true
		}
	}
	return acl.ACL{}, false
}

// SecurityGroup returns the group of tier.
func (p *Plan) SecurityGroup(tier string) (secgroup.Group, bool) {
	for _, g := range p.SecurityGroups {
		if g.Tier == tier {
			return g, true
		}
	}
	return secgroup.Group{}, false
}

// RuleCount returns the number of ACL entries and security group rules.
func (p *Plan) RuleCount() (aclRules, sgRules int) {
	for _, a := range p.ACLs {
		aclRules += len(a.Rules)
	}
	for _, g := range p.SecurityGroups {
		sgRules += len(g.Ingress) + len(g.Egress)
	}
	return aclRules, sgRules
}
