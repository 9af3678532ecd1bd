package stack

import (
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
	"github.com/lex00/wetwire-tiernet-go/resources/ec2"
)

// Tag keys identifying a subnet's tier.
const (
	TagSubnetTier = "tiernet:subnet-tier"
	TagExposure   = "tiernet:exposure"
)

func (r *renderer) network() {
	topo := r.plan.Topology
	spec := topo.Spec
	vpcName := spec.StackName + "/" + spec.VPCName

	r.declare(topo.VPCID, &ec2.VPC{
		CidrBlock:          topo.Base.String(),
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		InstanceTenancy:    "default",
		Tags:               []intrinsics.Tag{intrinsics.NameTag(vpcName)},
	})
	r.declare(topo.GatewayID, &ec2.InternetGateway{
		Tags: []intrinsics.Tag{intrinsics.NameTag(vpcName)},
	})
	r.declare(network.AttachmentLogicalID, &ec2.VPCGatewayAttachment{
		VpcId:             intrinsics.RefTo(topo.VPCID),
		InternetGatewayId: intrinsics.RefTo(topo.GatewayID),
	})

	var subnetIDs []string
	for _, tier := range topo.Tiers {
		for _, s := range tier.Subnets {
			var az any = intrinsics.AZ(s.AZIndex)
			if s.AvailabilityZone != "" {
				az = s.AvailabilityZone
			}
			r.declare(s.ID, &ec2.Subnet{
				VpcId:               intrinsics.RefTo(topo.VPCID),
				CidrBlock:           s.CIDR.String(),
				AvailabilityZone:    az,
				MapPublicIpOnLaunch: s.MapPublicIP,
				Tags: []intrinsics.Tag{
					intrinsics.NameTag(vpcName + "/" + s.ID),
					{Key: TagSubnetTier, Value: tier.Spec.Name},
					{Key: TagExposure, Value: string(tier.Spec.Exposure)},
				},
			})
			subnetIDs = append(subnetIDs, s.ID)
		}
	}

	rt := topo.RouteTable
	r.declare(rt.ID, &ec2.RouteTable{
		VpcId: intrinsics.RefTo(topo.VPCID),
		Tags:  []intrinsics.Tag{intrinsics.NameTag(rt.DisplayName)},
	}, subnetIDs...)
	r.declare(rt.DefaultRoute.ID, &ec2.Route{
		RouteTableId:         intrinsics.RefTo(rt.ID),
		DestinationCidrBlock: rt.DefaultRoute.Destination,
		GatewayId:            intrinsics.RefTo(topo.GatewayID),
	}, network.AttachmentLogicalID)
	for _, a := range rt.Associations {
		r.declare(a.ID, &ec2.SubnetRouteTableAssociation{
			SubnetId:     intrinsics.RefTo(a.SubnetID),
			RouteTableId: intrinsics.RefTo(rt.ID),
		})
	}
}
