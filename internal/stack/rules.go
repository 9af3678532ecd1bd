package stack

import (
	"strconv"

	"github.com/lex00/wetwire-tiernet-go/internal/acl"
	"github.com/lex00/wetwire-tiernet-go/internal/secgroup"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
	"github.com/lex00/wetwire-tiernet-go/resources/ec2"
)

// protocolTCP is the IANA protocol number used in ACL entries.
const protocolTCP = 6

// Placeholder egress that matches no traffic. A group whose only egress is
// this rule has the default allow-all egress removed.
var disallowAllEgress = ec2.SecurityGroup_Egress{
	CidrIp:      "255.255.255.255/32",
	Description: "Disallow all traffic",
	IpProtocol:  "icmp",
	FromPort:    252,
	ToPort:      86,
}

func (r *renderer) networkACLs() {
	vpc := intrinsics.RefTo(r.plan.Topology.VPCID)
	for _, a := range r.plan.ACLs {
		r.declare(a.ID, &ec2.NetworkAcl{
			VpcId: vpc,
			Tags:  []intrinsics.Tag{intrinsics.NameTag(a.Name)},
		})
		for _, rule := range a.Ordered() {
			r.declare(EntryID(a, rule), &ec2.NetworkAclEntry{
				NetworkAclId: intrinsics.RefTo(a.ID),
				RuleNumber:   rule.Number,
				Protocol:     protocolTCP,
				RuleAction:   string(rule.Action),
				Egress:       rule.Direction == acl.Egress,
				CidrBlock:    rule.CIDR,
				PortRange:    &ec2.NetworkAclEntry_PortRange{From: rule.Ports.From, To: rule.Ports.To},
			})
		}
		for _, subnetID := range a.SubnetIDs {
			r.declare(subnetID+"NetworkAclAssociation", &ec2.SubnetNetworkAclAssociation{
				SubnetId:     intrinsics.RefTo(subnetID),
				NetworkAclId: intrinsics.RefTo(a.ID),
			})
		}
	}
}

// EntryID is the logical ID of the ACL entry for rule.
func EntryID(a acl.ACL, rule acl.Rule) string {
	return a.ID + serialize.LogicalID(rule.Name)
}

func (r *renderer) securityGroups() {
	vpc := intrinsics.RefTo(r.plan.Topology.VPCID)
	for _, g := range r.plan.SecurityGroups {
		sg := &ec2.SecurityGroup{
			GroupDescription: g.Description(),
			GroupName:        g.Name,
			VpcId:            vpc,
			Tags:             []intrinsics.Tag{intrinsics.NameTag(g.Name)},
		}
		for _, rule := range g.InlineIngress() {
			sg.SecurityGroupIngress = append(sg.SecurityGroupIngress, ec2.SecurityGroup_Ingress{
				CidrIp:      rule.Peer.CIDR,
				Description: rule.Description,
				IpProtocol:  secgroup.Protocol,
				FromPort:    rule.Ports.From,
				ToPort:      rule.Ports.To,
			})
		}
		for _, rule := range g.InlineEgress() {
			sg.SecurityGroupEgress = append(sg.SecurityGroupEgress, ec2.SecurityGroup_Egress{
				CidrIp:      rule.Peer.CIDR,
				Description: rule.Description,
				IpProtocol:  secgroup.Protocol,
				FromPort:    rule.Ports.From,
				ToPort:      rule.Ports.To,
			})
		}
		if len(sg.SecurityGroupEgress) == 0 && !g.AllowAllOutbound {
			sg.SecurityGroupEgress = []ec2.SecurityGroup_Egress{disallowAllEgress}
		}
		r.declare(g.ID, sg)
	}

	// Group-to-group rules are separate resources so two groups can
	// reference each other without a cycle.
	for _, g := range r.plan.SecurityGroups {
		for _, rule := range g.GroupIngress() {
			peer := r.groupIDs[rule.Peer.Group]
			r.declare(g.ID+"From"+peer+portSuffix(rule), &ec2.SecurityGroupIngress{
				GroupId:               intrinsics.AttOf(g.ID, "GroupId"),
				Description:           rule.Description,
				IpProtocol:            secgroup.Protocol,
				FromPort:              rule.Ports.From,
				ToPort:                rule.Ports.To,
				SourceSecurityGroupId: intrinsics.AttOf(peer, "GroupId"),
			})
		}
		for _, rule := range g.GroupEgress() {
			peer := r.groupIDs[rule.Peer.Group]
			r.declare(g.ID+"To"+peer+portSuffix(rule), &ec2.SecurityGroupEgress{
				GroupId:                    intrinsics.AttOf(g.ID, "GroupId"),
				Description:                rule.Description,
				IpProtocol:                 secgroup.Protocol,
				FromPort:                   rule.Ports.From,
				ToPort:                     rule.Ports.To,
				DestinationSecurityGroupId: intrinsics.AttOf(peer, "GroupId"),
			})
		}
	}
}

func portSuffix(rule secgroup.Rule) string {
	if rule.Ports.Single() {
		return strconv.Itoa(rule.Ports.From)
	}
	return strconv.Itoa(rule.Ports.From) + "to" + strconv.Itoa(rule.Ports.To)
}
