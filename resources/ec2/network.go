// Package ec2 provides typed AWS::EC2 resources used by the network planner.
package ec2

import (
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

// VPC is AWS::EC2::VPC.
type VPC struct {
	CidrBlock          string           `json:"CidrBlock"`
	EnableDnsHostnames bool             `json:"EnableDnsHostnames,omitempty"`
	EnableDnsSupport   bool             `json:"EnableDnsSupport,omitempty"`
	InstanceTenancy    string           `json:"InstanceTenancy,omitempty"`
	Tags               []intrinsics.Tag `json:"Tags,omitempty"`
}

func (VPC) ResourceType() string { return "AWS::EC2::VPC" }

// InternetGateway is AWS::EC2::InternetGateway.
type InternetGateway struct {
	Tags []intrinsics.Tag `json:"Tags,omitempty"`
}

func (InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment is AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	VpcId             any `json:"VpcId"`
	InternetGatewayId any `json:"InternetGatewayId,omitempty"`
}

func (VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// Subnet is AWS::EC2::Subnet.
type Subnet struct {
	VpcId               any              `json:"VpcId"`
	CidrBlock           string           `json:"CidrBlock"`
	AvailabilityZone    any              `json:"AvailabilityZone,omitempty"`
	MapPublicIpOnLaunch bool             `json:"MapPublicIpOnLaunch,omitempty"`
	Tags                []intrinsics.Tag `json:"Tags,omitempty"`
}

func (Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// RouteTable is AWS::EC2::RouteTable.
type RouteTable struct {
	VpcId any              `json:"VpcId"`
	Tags  []intrinsics.Tag `json:"Tags,omitempty"`
}

func (RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// Route is AWS::EC2::Route.
type Route struct {
	RouteTableId         any    `json:"RouteTableId"`
	DestinationCidrBlock string `json:"DestinationCidrBlock"`
	GatewayId            any    `json:"GatewayId,omitempty"`
	NatGatewayId         any    `json:"NatGatewayId,omitempty"`
}

func (Route) ResourceType() string { return "AWS::EC2::Route" }

// SubnetRouteTableAssociation is AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	SubnetId     any `json:"SubnetId"`
	RouteTableId any `json:"RouteTableId"`
}

func (SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}

// NetworkAcl is AWS::EC2::NetworkAcl.
type NetworkAcl struct {
	VpcId any              `json:"VpcId"`
	Tags  []intrinsics.Tag `json:"Tags,omitempty"`
}

func (NetworkAcl) ResourceType() string { return "AWS::EC2::NetworkAcl" }

// NetworkAclEntry is AWS::EC2::NetworkAclEntry.
type NetworkAclEntry struct {
	NetworkAclId any                        `json:"NetworkAclId"`
	RuleNumber   int                        `json:"RuleNumber"`
	Protocol     int                        `json:"Protocol"`
	RuleAction   string                     `json:"RuleAction"`
	Egress       bool                       `json:"Egress,omitempty"`
	CidrBlock    string                     `json:"CidrBlock,omitempty"`
	PortRange    *NetworkAclEntry_PortRange `json:"PortRange,omitempty"`
}

func (NetworkAclEntry) ResourceType() string { return "AWS::EC2::NetworkAclEntry" }

// NetworkAclEntry_PortRange is the PortRange property of a NetworkAclEntry.
type NetworkAclEntry_PortRange struct {
	From int `json:"From"`
	To   int `json:"To"`
}

// SubnetNetworkAclAssociation is AWS::EC2::SubnetNetworkAclAssociation.
type SubnetNetworkAclAssociation struct {
	SubnetId     any `json:"SubnetId"`
	NetworkAclId any `json:"NetworkAclId"`
}

func (SubnetNetworkAclAssociation) ResourceType() string {
	return "AWS::EC2::SubnetNetworkAclAssociation"
}
