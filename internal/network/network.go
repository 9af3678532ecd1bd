// Package network derives subnet tiers and the shared route table from a NetworkSpec.
package network

import (
	"fmt"
	"strings"

	"github.com/c-robinson/iplib"
	"github.com/shopspring/decimal"
)

// Exposure controls whether instances in a tier get a public IP on launch.
type Exposure string

const (
	// ExposurePublic maps a public IP on launch.
	ExposurePublic Exposure = "public"
	// ExposureIsolated means no auto-assigned public IP. The tier still routes to the internet.
	ExposureIsolated Exposure = "isolated"
)

// Default names reproduce the reference stack.
const (
	DefaultStackName      = "CdkEc2SetupStack"
	DefaultVPCName        = "cdk_ec2_vpc"
	DefaultRouteTableName = "CustomRouteTable"
	DefaultRoute          = "0.0.0.0/0"
	// MaxSubnetMask is the smallest subnet AWS accepts.
	MaxSubnetMask = 28
	// MinVPCMask is the largest VPC block AWS accepts.
	MinVPCMask = 16
)

// Route targets.
const (
	TargetInternetGateway = "InternetGateway"
)

// NetworkSpec is the planner input.
type NetworkSpec struct {
	StackName      string
	VPCName        string
	RouteTableName string

	// CIDR is the IPv4 base block, e.g. "10.255.248.0/21".
	CIDR   string
	MaxAZs int
	// NatGateways must be 0. No NAT path is modeled.
	NatGateways int
	// AvailabilityZones pins subnets to named zones. When empty, zones are
	// selected by index from the stack's region at deploy time.
	AvailabilityZones []string
	Tiers             []SubnetTierSpec
}

// SubnetTierSpec declares one tier of same-purpose subnets.
type SubnetTierSpec struct {
	Name     string
	CIDRMask int
	Exposure Exposure
}

// Subnet is one per-AZ subnet of a tier.
type Subnet struct {
	Tier    string
	AZIndex int
	// AvailabilityZone is empty when zones are selected by index.
	AvailabilityZone string
	CIDR             iplib.Net4
	// ID is the CloudFormation logical ID.
	ID string
	// MapPublicIP is true for public tiers.
	MapPublicIP bool
}

// SubnetTier is a tier resolved to concrete subnets.
type SubnetTier struct {
	Spec    SubnetTierSpec
	Subnets []Subnet
}

// Name returns the tier name.
func (t SubnetTier) Name() string { return t.Spec.Name }

// CIDRs returns the subnet blocks of the tier in AZ order.
func (t SubnetTier) CIDRs() []string {
	out := make([]string, len(t.Subnets))
	for i, s := range t.Subnets {
		out[i] = s.CIDR.String()
	}
	return out
}

// Route is a route table entry.
type Route struct {
	ID          string
	Destination string
	Target      string
}

// Association binds one subnet to the route table.
type Association struct {
	ID       string
	SubnetID string
}

// RouteTable is the single table shared by every subnet.
type RouteTable struct {
	ID string
	// DisplayName is "<stack>/<vpc>/<route table>", emitted as the Name tag.
	DisplayName  string
	DefaultRoute Route
	Associations []Association
}

// Topology is the Topology Planner result. It is read-only once returned.
type Topology struct {
	Spec       NetworkSpec
	Base       iplib.Net4
	VPCID      string
	GatewayID  string
	Tiers      []SubnetTier
	RouteTable RouteTable
}

// Tier looks a tier up by name.
func (t *Topology) Tier(name string) (*SubnetTier, bool) {
	for i := range t.Tiers {
		if t.Tiers[i].Spec.Name == name {
			return &t.Tiers[i], true
		}
	}
	return nil, false
}

// TierNames returns tier names in declaration order.
func (t *Topology) TierNames() []string {
	names := make([]string, len(t.Tiers))
	for i, tier := range t.Tiers {
		names[i] = tier.Spec.Name
	}
	return names
}

// Subnets returns every subnet, tiers in declaration order then AZ order.
func (t *Topology) Subnets() []Subnet {
	var out []Subnet
	for _, tier := range t.Tiers {
		out = append(out, tier.Subnets...)
	}
	return out
}

// Utilization returns the percentage of the base block allocated to subnets,
// rounded to two decimal places.
func (t *Topology) Utilization() decimal.Decimal {
	total := decimal.NewFromInt(int64(blockSize(maskLen(t.Base))))
	used := decimal.Zero
	for _, s := range t.Subnets() {
		used = used.Add(decimal.NewFromInt(int64(blockSize(maskLen(s.CIDR)))))
	}
	return used.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// Free returns the number of base block addresses not allocated to any subnet.
func (t *Topology) Free() uint64 {
	free := blockSize(maskLen(t.Base))
	for _, s := range t.Subnets() {
		free -= blockSize(maskLen(s.CIDR))
	}
	return free
}

func (s NetworkSpec) withDefaults() NetworkSpec {
	if s.StackName == "" {
		s.StackName = DefaultStackName
	}
	if s.VPCName == "" {
		s.VPCName = DefaultVPCName
	}
	if s.RouteTableName == "" {
		s.RouteTableName = DefaultRouteTableName
	}
	return s
}

// DisplayName composes the route table Name tag.
func DisplayName(stack, vpc, table string) string {
	return strings.Join([]string{stack, vpc, table}, "/")
}

func maskLen(n iplib.Net4) int {
	ones, _ := n.Mask().Size()
	return ones
}

func blockSize(mask int) uint64 {
	return uint64(1) << uint(32-mask)
}

func (e Exposure) valid() bool {
	return e == ExposurePublic || e == ExposureIsolated
}

// ParseExposure accepts "public" or "isolated" (case-insensitive).
func ParseExposure(s string) (Exposure, error) {
	e := Exposure(strings.ToLower(strings.TrimSpace(s)))
	if !e.valid() {
		return "", fmt.Errorf("unknown exposure %q (want public or isolated)", s)
	}
	return e, nil
}
