package network

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	tiernet "github.com/lex00/wetwire-tiernet-go"
)

func referenceSpec() NetworkSpec {
	return NetworkSpec{
		CIDR:   "10.255.248.0/21",
		MaxAZs: 3,
		Tiers: []SubnetTierSpec{
			{Name: "cdk_ec2_elb_pub", CIDRMask: 28, Exposure: ExposurePublic},
			{Name: "cdk_ec2_web_priv", CIDRMask: 26, Exposure: ExposureIsolated},
		},
	}
}

func TestPlan_ReferenceScenario(t *testing.T) {
	topo, err := Plan(referenceSpec(), nil)
	require.NoError(t, err)

	require.Len(t, topo.Tiers, 2)
	assert.Equal(t, []string{"10.255.248.0/28", "10.255.248.16/28", "10.255.248.32/28"}, topo.Tiers[0].CIDRs())
	assert.Equal(t, []string{"10.255.248.64/26", "10.255.248.128/26", "10.255.248.192/26"}, topo.Tiers[1].CIDRs())

	assert.Len(t, topo.Subnets(), 6)
	assert.Len(t, topo.RouteTable.Associations, 6)
	assert.Equal(t, "0.0.0.0/0", topo.RouteTable.DefaultRoute.Destination)
	assert.Equal(t, TargetInternetGateway, topo.RouteTable.DefaultRoute.Target)
	assert.Equal(t, "CdkEc2SetupStack/cdk_ec2_vpc/CustomRouteTable", topo.RouteTable.DisplayName)
	assert.Equal(t, "CustomRouteTable", topo.RouteTable.ID)

	pub := topo.Tiers[0].Subnets[0]
	assert.Equal(t, "CdkEc2ElbPubSubnet1", pub.ID)
	assert.True(t, pub.MapPublicIP)
	assert.False(t, topo.Tiers[1].Subnets[2].MapPublicIP)
	assert.Equal(t, "CdkEc2WebPrivSubnet3", topo.Tiers[1].Subnets[2].ID)

	assert.Equal(t, "11.72", topo.Utilization().StringFixed(2))
	assert.Equal(t, uint64(2048-240), topo.Free())
}

func TestPlan_NamedZones(t *testing.T) {
	spec := referenceSpec()
	spec.MaxAZs = 2
	spec.AvailabilityZones = []string{"eu-west-1a", "eu-west-1b", "eu-west-1c"}

	topo, err := Plan(spec, nil)
	require.NoError(t, err)

	tier, ok := topo.Tier("cdk_ec2_web_priv")
	require.True(t, ok)
	require.Len(t, tier.Subnets, 2)
	assert.Equal(t, "eu-west-1b", tier.Subnets[1].AvailabilityZone)

	_, ok = topo.Tier("missing")
	assert.False(t, ok)
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NetworkSpec)
		field  string
	}{
		{"malformed cidr", func(s *NetworkSpec) { s.CIDR = "10.0.0.0" }, "cidr"},
		{"ipv6", func(s *NetworkSpec) { s.CIDR = "2001:db8::/56" }, "cidr"},
		{"too large", func(s *NetworkSpec) { s.CIDR = "10.0.0.0/8" }, "cidr"},
		{"host bits", func(s *NetworkSpec) { s.CIDR = "10.255.248.1/21" }, "cidr"},
		{"zero azs", func(s *NetworkSpec) { s.MaxAZs = 0 }, "max_azs"},
		{"more azs than listed", func(s *NetworkSpec) { s.AvailabilityZones = []string{"a", "b"} }, "max_azs"},
		{"nat gateway", func(s *NetworkSpec) { s.NatGateways = 1 }, "nat_gateways"},
		{"no tiers", func(s *NetworkSpec) { s.Tiers = nil }, "tiers"},
		{"duplicate tier", func(s *NetworkSpec) { s.Tiers[1].Name = s.Tiers[0].Name }, "tier name"},
		{"tier ids collide", func(s *NetworkSpec) { s.Tiers[1].Name = "cdk-ec2-elb-pub" }, "tier name"},
		{"tier without id", func(s *NetworkSpec) { s.Tiers[1].Name = "__" }, "tier name"},
		{"mask below base", func(s *NetworkSpec) { s.Tiers[0].CIDRMask = 20 }, "cidr_mask"},
		{"mask above 28", func(s *NetworkSpec) { s.Tiers[0].CIDRMask = 29 }, "cidr_mask"},
		{"bad exposure", func(s *NetworkSpec) { s.Tiers[0].Exposure = "private" }, "exposure"},
		{"overflow", func(s *NetworkSpec) { s.Tiers[1].CIDRMask = 22 }, "tier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := referenceSpec()
			tt.mutate(&spec)

			topo, err := Plan(spec, nil)
			require.Error(t, err)
			assert.Nil(t, topo)
			assert.True(t, errors.Is(err, tiernet.ErrConfig))

			var cfgErr *tiernet.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestPlan_TierIDCollisionNamesBothTiers(t *testing.T) {
	spec := referenceSpec()
	spec.Tiers[0].Name = "web_priv"
	spec.Tiers[1].Name = "web-priv"

	_, err := Plan(spec, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "WebPriv collides with tier web_priv")
}

func TestParseExposure(t *testing.T) {
	e, err := ParseExposure(" Public ")
	require.NoError(t, err)
	assert.Equal(t, ExposurePublic, e)

	_, err = ParseExposure("private")
	assert.Error(t, err)
}

// Every subnet belongs to exactly one tier and has exactly one association,
// and no two subnets overlap.
func TestPlan_PartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		baseMask := rapid.IntRange(16, 24).Draw(t, "baseMask")
		azs := rapid.IntRange(1, 4).Draw(t, "azs")
		nTiers := rapid.IntRange(1, 4).Draw(t, "tiers")

		spec := NetworkSpec{CIDR: "10.20.0.0/" + strconv.Itoa(baseMask), MaxAZs: azs}
		for i := 0; i < nTiers; i++ {
			spec.Tiers = append(spec.Tiers, SubnetTierSpec{
				Name:     "tier" + strconv.Itoa(i),
				CIDRMask: rapid.IntRange(baseMask+3, 28).Draw(t, "mask"),
				Exposure: rapid.SampledFrom([]Exposure{ExposurePublic, ExposureIsolated}).Draw(t, "exposure"),
			})
		}

		topo, err := Plan(spec, nil)
		if err != nil {
			if !errors.Is(err, tiernet.ErrConfig) {
				t.Fatalf("unexpected error type: %v", err)
			}
			return
		}

		subnets := topo.Subnets()
		if len(subnets) != azs*nTiers {
			t.Fatalf("got %d subnets, want %d", len(subnets), azs*nTiers)
		}

		assoc := make(map[string]int)
		for _, a := range topo.RouteTable.Associations {
			assoc[a.SubnetID]++
		}
		ids := make(map[string]bool)
		for i, s := range subnets {
			if ids[s.ID] {
				t.Fatalf("duplicate subnet id %s", s.ID)
			}
			ids[s.ID] = true
			if assoc[s.ID] != 1 {
				t.Fatalf("subnet %s has %d associations", s.ID, assoc[s.ID])
			}
			if !topo.Base.ContainsNet(s.CIDR) {
				t.Fatalf("subnet %s outside base %s", s.CIDR.String(), topo.Base.String())
			}
			for _, o := range subnets[i+1:] {
				if s.CIDR.ContainsNet(o.CIDR) || o.CIDR.ContainsNet(s.CIDR) {
					t.Fatalf("subnets %s and %s overlap", s.CIDR.String(), o.CIDR.String())
				}
			}
		}
		if len(assoc) != len(subnets) {
			t.Fatalf("associations reference %d subnets, want %d", len(assoc), len(subnets))
		}
	})
}
