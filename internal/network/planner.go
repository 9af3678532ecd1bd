package network

import (
	"net"
	"strconv"
	"strings"

	"github.com/c-robinson/iplib"
	"go.uber.org/zap"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
)

// Logical IDs of the singleton network resources.
const (
	VPCLogicalID        = "Vpc"
	GatewayLogicalID    = "InternetGateway"
	AttachmentLogicalID = "VpcGatewayAttachment"
)

// Plan validates spec and allocates one subnet per tier per AZ, then builds
// the shared route table associated with every subnet.
//
// Tiers are allocated in declaration order and AZs in index order. Each
// subnet takes the next free block of its own size, aligned to that size.
// Any invalid input returns a *tiernet.ConfigError and no topology.
func Plan(spec NetworkSpec, logger *zap.Logger) (*Topology, error) {
	logger = logging.OrNop(logger)
	spec = spec.withDefaults()

	base, err := validate(spec)
	if err != nil {
		return nil, err
	}

	topo := &Topology{
		Spec:      spec,
		Base:      base,
		VPCID:     VPCLogicalID,
		GatewayID: GatewayLogicalID,
	}

	cursor := uint64(iplib.IP4ToUint32(base.IP()))
	end := cursor + blockSize(maskLen(base))

	for _, ts := range spec.Tiers {
		tier := SubnetTier{Spec: ts}
		size := blockSize(ts.CIDRMask)
		for az := 0; az < spec.MaxAZs; az++ {
			if rem := cursor % size; rem != 0 {
				cursor += size - rem
			}
			if cursor+size > end {
				return nil, tiernet.NewConfigError("tier", ts.Name,
					"subnet %d of /%d does not fit in %s", az+1, ts.CIDRMask, base.String())
			}
			block := iplib.NewNet4(iplib.Uint32ToIP4(uint32(cursor)), ts.CIDRMask)
			cursor += size

			subnet := Subnet{
				Tier:        ts.Name,
				AZIndex:     az,
				CIDR:        block,
				ID:          SubnetID(ts.Name, az),
				MapPublicIP: ts.Exposure == ExposurePublic,
			}
			if len(spec.AvailabilityZones) > 0 {
				subnet.AvailabilityZone = spec.AvailabilityZones[az]
			}
			tier.Subnets = append(tier.Subnets, subnet)
			logger.Debug("allocated subnet",
				zap.String("tier", ts.Name),
				zap.Int("az", az),
				zap.String("cidr", block.String()))
		}
		topo.Tiers = append(topo.Tiers, tier)
	}

	topo.RouteTable = routeTable(spec, topo.Subnets())
	logger.Debug("planned topology",
		zap.String("cidr", base.String()),
		zap.Int("tiers", len(topo.Tiers)),
		zap.Int("associations", len(topo.RouteTable.Associations)),
		zap.String("utilization", topo.Utilization().String()))

	return topo, nil
}

// SubnetID returns the logical ID of the subnet of tier in AZ index az.
func SubnetID(tier string, az int) string {
	return serialize.LogicalID(tier, "Subnet", strconv.Itoa(az+1))
}

func routeTable(spec NetworkSpec, subnets []Subnet) RouteTable {
	id := serialize.LogicalID(spec.RouteTableName)
	rt := RouteTable{
		ID:          id,
		DisplayName: DisplayName(spec.StackName, spec.VPCName, spec.RouteTableName),
		DefaultRoute: Route{
			ID:          serialize.LogicalID(spec.RouteTableName, "InternetRoute"),
			Destination: DefaultRoute,
			Target:      TargetInternetGateway,
		},
	}
	for _, s := range subnets {
		rt.Associations = append(rt.Associations, Association{
			ID:       s.ID + serialize.LogicalID(spec.RouteTableName, "Association"),
			SubnetID: s.ID,
		})
	}
	return rt
}

func validate(spec NetworkSpec) (iplib.Net4, error) {
	ip, ipnet, err := net.ParseCIDR(strings.TrimSpace(spec.CIDR))
	if err != nil {
		return iplib.Net4{}, &tiernet.ConfigError{Field: "cidr", Value: spec.CIDR, Reason: "not a CIDR block", Err: err}
	}
	if ip.To4() == nil {
		return iplib.Net4{}, tiernet.NewConfigError("cidr", spec.CIDR, "must be IPv4")
	}
	ones, _ := ipnet.Mask.Size()
	if ones < MinVPCMask || ones > MaxSubnetMask {
		return iplib.Net4{}, tiernet.NewConfigError("cidr", spec.CIDR, "prefix must be between /%d and /%d", MinVPCMask, MaxSubnetMask)
	}
	if !ip.Equal(ipnet.IP) {
		return iplib.Net4{}, tiernet.NewConfigError("cidr", spec.CIDR, "host bits set, did you mean %s", ipnet.String())
	}
	base := iplib.NewNet4(ipnet.IP, ones)

	if spec.MaxAZs < 1 {
		return iplib.Net4{}, tiernet.NewConfigError("max_azs", spec.MaxAZs, "must be at least 1")
	}
	if n := len(spec.AvailabilityZones); n > 0 && spec.MaxAZs > n {
		return iplib.Net4{}, tiernet.NewConfigError("max_azs", spec.MaxAZs, "only %d availability zones listed", n)
	}
	seenAZ := make(map[string]bool)
	for _, az := range spec.AvailabilityZones {
		if az == "" || seenAZ[az] {
			return iplib.Net4{}, tiernet.NewConfigError("availability_zones", spec.AvailabilityZones, "zones must be unique and non-empty")
		}
		seenAZ[az] = true
	}
	if spec.NatGateways != 0 {
		return iplib.Net4{}, tiernet.NewConfigError("nat_gateways", spec.NatGateways, "must be 0, no NAT path is modeled")
	}
	if len(spec.Tiers) == 0 {
		return iplib.Net4{}, tiernet.NewConfigError("tiers", nil, "at least one tier is required")
	}

	seen := make(map[string]string)
	for _, t := range spec.Tiers {
		if strings.TrimSpace(t.Name) == "" {
			return iplib.Net4{}, tiernet.NewConfigError("tier name", t.Name, "must not be empty")
		}
		id := serialize.LogicalID(t.Name)
		if id == "" {
			return iplib.Net4{}, tiernet.NewConfigError("tier name", t.Name, "must contain a letter or digit")
		}
		if prev, ok := seen[id]; ok {
			if prev == t.Name {
				return iplib.Net4{}, tiernet.NewConfigError("tier name", t.Name, "declared twice")
			}
			return iplib.Net4{}, tiernet.NewConfigError("tier name", t.Name, "logical ID %s collides with tier %s", id, prev)
		}
		seen[id] = t.Name
		if t.CIDRMask < ones || t.CIDRMask > MaxSubnetMask {
			return iplib.Net4{}, tiernet.NewConfigError("cidr_mask", t.CIDRMask,
				"tier %s mask must be between /%d and /%d", t.Name, ones, MaxSubnetMask)
		}
		if !t.Exposure.valid() {
			return iplib.Net4{}, tiernet.NewConfigError("exposure", string(t.Exposure),
				"tier %s exposure must be public or isolated", t.Name)
		}
	}
	return base, nil
}
