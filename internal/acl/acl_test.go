package acl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

const (
	lbTier  = "cdk_ec2_elb_pub"
	webTier = "cdk_ec2_web_priv"
)

func referenceTopology(t *testing.T, azs int) *network.Topology {
	t.Helper()
	topo, err := network.Plan(network.NetworkSpec{
		CIDR:   "10.255.248.0/21",
		MaxAZs: azs,
		Tiers: []network.SubnetTierSpec{
			{Name: lbTier, CIDRMask: 28, Exposure: network.ExposurePublic},
			{Name: webTier, CIDRMask: 26, Exposure: network.ExposureIsolated},
		},
	}, nil)
	require.NoError(t, err)
	return topo
}

func numbers(rules []Rule) []int {
	out := make([]int, len(rules))
	for i, r := range rules {
		out[i] = r.Number
	}
	return out
}

func TestPlan_PublicTierScenario(t *testing.T) {
	acls, err := Plan(referenceTopology(t, 3), traffic.WebTierPolicy(lbTier, webTier), traffic.Profile{}, nil)
	require.NoError(t, err)
	require.Len(t, acls, 2)

	pub := acls[0]
	assert.Equal(t, "cdk_ec2_elb_pub_nacl", pub.Name)
	assert.Equal(t, "CdkEc2ElbPubNacl", pub.ID)
	assert.Equal(t, []int{50, 51, 52, 100}, numbers(pub.Ingress()))
	assert.Equal(t, []int{50, 51, 52, 100}, numbers(pub.Egress()))

	in := pub.Ingress()
	assert.Equal(t, "Incoming_HTTP_response_CdkEc2WebPrivSubnet1", in[0].Name)
	assert.Equal(t, "10.255.248.64/26", in[0].CIDR)
	assert.Equal(t, traffic.Ephemeral, in[0].Ports)
	assert.Equal(t, "Incoming_HTTP_Internet", in[3].Name)
	assert.True(t, in[3].AnyIPv4())
	assert.Equal(t, traffic.HTTP, in[3].Ports)

	out := pub.Egress()
	assert.Equal(t, "Outgoing_HTTP_forward_CdkEc2WebPrivSubnet3", out[2].Name)
	assert.Equal(t, "10.255.248.192/26", out[2].CIDR)
	assert.Equal(t, traffic.HTTP, out[2].Ports)
	assert.Equal(t, "Outgoing_HTTP_response_Internet", out[3].Name)
	assert.Equal(t, traffic.Ephemeral, out[3].Ports)

	for _, r := range pub.Rules {
		assert.Equal(t, Allow, r.Action)
	}
}

func TestPlan_WebTierScenario(t *testing.T) {
	acls, err := Plan(referenceTopology(t, 3), traffic.WebTierPolicy(lbTier, webTier), traffic.Profile{}, nil)
	require.NoError(t, err)

	web := acls[1]
	assert.Equal(t, []string{"CdkEc2WebPrivSubnet1", "CdkEc2WebPrivSubnet2", "CdkEc2WebPrivSubnet3"}, web.SubnetIDs)
	assert.Equal(t, []int{50, 51, 52, 200}, numbers(web.Ingress()))
	assert.Equal(t, []int{50, 51, 52, 200, 201}, numbers(web.Egress()))

	r, ok := web.Rule("Incoming_HTTP_forward_CdkEc2ElbPubSubnet2")
	require.True(t, ok)
	assert.Equal(t, 51, r.Number)
	assert.Equal(t, "10.255.248.16/28", r.CIDR)

	r, ok = web.Rule("Outgoing_HTTPS_request_Internet")
	require.True(t, ok)
	assert.Equal(t, 200, r.Number)

	_, ok = web.Rule("Incoming_HTTP_response_Internet")
	assert.False(t, ok, "HTTP return collapses into the HTTPS return rule")
}

func TestPlan_DirectAccessProfile(t *testing.T) {
	acls, err := Plan(referenceTopology(t, 3), traffic.WebTierPolicy(lbTier, webTier), traffic.Profile{DirectAccess: true}, nil)
	require.NoError(t, err)

	web := acls[1]
	assert.Equal(t, []int{50, 51, 52, 200, 500, 501}, numbers(web.Ingress()))
	assert.Equal(t, []int{50, 51, 52, 200, 201, 300}, numbers(web.Egress()))

	ssh, ok := web.Rule("Incoming_SSH_Internet")
	require.True(t, ok)
	assert.True(t, ssh.Optional)
	assert.Equal(t, traffic.SSH, ssh.Ports)

	// The load balancer tier is untouched by the profile.
	assert.Equal(t, []int{50, 51, 52, 100}, numbers(acls[0].Ingress()))
}

func TestPlan_OptionalTierFlowNumberedAbovePrimaries(t *testing.T) {
	policy := traffic.WebTierPolicy(lbTier, webTier)
	policy.Flows = append(policy.Flows, traffic.Flow{
		From: traffic.Tier(lbTier), To: traffic.Tier(webTier), Ports: traffic.Port(8080), Optional: true,
	})

	acls, err := Plan(referenceTopology(t, 3), policy, traffic.Profile{DirectAccess: true}, nil)
	require.NoError(t, err)

	// Ephemeral returns already exist for the HTTP flow, so only the
	// forward rules are added.
	assert.Equal(t, []int{50, 51, 52, 100, 101, 102, 103}, numbers(acls[0].Egress()))
	assert.Equal(t, []int{50, 51, 52, 200, 201, 202, 203, 500, 501}, numbers(acls[1].Ingress()))
	assert.Equal(t, []int{50, 51, 52, 200, 201, 300}, numbers(acls[1].Egress()))

	fwd, ok := acls[1].Rule("Incoming_TCP8080_forward_CdkEc2ElbPubSubnet1")
	require.True(t, ok)
	assert.True(t, fwd.Optional)
	assert.Equal(t, 201, fwd.Number)

	acls, err = Plan(referenceTopology(t, 3), policy, traffic.Profile{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 51, 52, 100}, numbers(acls[0].Egress()))
	assert.Equal(t, []int{50, 51, 52, 200}, numbers(acls[1].Ingress()))
}

func TestPlan_EnumerationFollowsAZCount(t *testing.T) {
	acls, err := Plan(referenceTopology(t, 2), traffic.WebTierPolicy(lbTier, webTier), traffic.Profile{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 51, 100}, numbers(acls[0].Ingress()))
	assert.Equal(t, []int{50, 51, 200, 201}, numbers(acls[1].Egress()))
}

func TestPlan_UnusedTierGetsEmptyACL(t *testing.T) {
	topo, err := network.Plan(network.NetworkSpec{
		CIDR:   "10.0.0.0/16",
		MaxAZs: 1,
		Tiers: []network.SubnetTierSpec{
			{Name: "lb", CIDRMask: 24, Exposure: network.ExposurePublic},
			{Name: "web", CIDRMask: 24, Exposure: network.ExposureIsolated},
			{Name: "dark", CIDRMask: 24, Exposure: network.ExposureIsolated},
		},
	}, nil)
	require.NoError(t, err)

	acls, err := Plan(topo, traffic.WebTierPolicy("lb", "web"), traffic.Profile{}, nil)
	require.NoError(t, err)
	require.Len(t, acls, 3)
	assert.Equal(t, "dark_nacl", acls[2].Name)
	assert.Empty(t, acls[2].Rules)
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name     string
		policy   traffic.Policy
		profile  traffic.Profile
		conflict bool
		reason   string
	}{
		{
			name:   "unknown tier",
			policy: traffic.WebTierPolicy(lbTier, "missing"),
			reason: "unknown tier",
		},
		{
			name:   "empty policy",
			policy: traffic.Policy{},
			reason: "no flows",
		},
		{
			name: "duplicate number",
			policy: traffic.Policy{Flows: []traffic.Flow{
				{From: traffic.Internet, To: traffic.Tier(lbTier), Ports: traffic.HTTP, Rule: 100},
				{From: traffic.Internet, To: traffic.Tier(lbTier), Ports: traffic.SSH, Rule: 100},
			}},
			conflict: true,
			reason:   "duplicate ingress rule number",
		},
		{
			name: "enumerated rules reach fixed number",
			policy: traffic.Policy{Flows: []traffic.Flow{
				{From: traffic.Internet, To: traffic.Tier(lbTier), Ports: traffic.HTTP, Rule: 10},
				{From: traffic.Tier(lbTier), To: traffic.Tier(webTier), Ports: traffic.HTTP},
			}},
			conflict: true,
			reason:   "per-subnet rules reach fixed number 10",
		},
		{
			name: "optional rule shadows primary",
			policy: traffic.Policy{Flows: append(traffic.WebTierPolicy(lbTier, webTier).Flows,
				traffic.Flow{From: traffic.Internet, To: traffic.Tier(webTier), Ports: traffic.Port(8080), Rule: 150, ReturnRule: 300, Optional: true},
			)},
			conflict: true,
			reason:   "optional rule must be numbered above primary rule 200",
		},
		{
			name: "service label reused for another port",
			policy: traffic.Policy{Flows: []traffic.Flow{
				{From: traffic.Internet, To: traffic.Tier(lbTier), Ports: traffic.HTTP, Service: "web", Rule: 100},
				{From: traffic.Internet, To: traffic.Tier(lbTier), Ports: traffic.Port(8080), Service: "web", Rule: 110},
			}},
			conflict: true,
			reason:   "rules share the name IncomingWebInternet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acls, err := Plan(referenceTopology(t, 3), tt.policy, tt.profile, nil)
			require.Error(t, err)
			assert.Nil(t, acls)
			assert.Contains(t, err.Error(), tt.reason)
			if tt.conflict {
				assert.True(t, errors.Is(err, tiernet.ErrRuleConflict))
				var rc *tiernet.RuleConflictError
				assert.ErrorAs(t, err, &rc)
			} else {
				assert.True(t, errors.Is(err, tiernet.ErrConfig))
			}
		})
	}
}

func TestVerifySymmetry_MissingReturn(t *testing.T) {
	acls := []ACL{{
		Name: "web_nacl",
		Tier: "web",
		Rules: []Rule{
			{Name: "Outgoing_HTTPS_request_Internet", Number: 200, Direction: Egress, CIDR: traffic.AnyIPv4, Ports: traffic.HTTPS, Action: Allow},
		},
	}}

	err := VerifySymmetry(acls)
	require.Error(t, err)
	var rc *tiernet.RuleConflictError
	require.ErrorAs(t, err, &rc)
	assert.Equal(t, "web_nacl", rc.ACL)
	assert.Equal(t, "Outgoing_HTTPS_request_Internet", rc.Rule)
}

func TestVerifySymmetry_OptionalReturnDoesNotCoverPrimary(t *testing.T) {
	acls := []ACL{{
		Name: "web_nacl",
		Tier: "web",
		Rules: []Rule{
			{Name: "fwd", Number: 200, Direction: Egress, CIDR: traffic.AnyIPv4, Ports: traffic.HTTPS, Action: Allow},
			{Name: "ret", Number: 300, Direction: Ingress, CIDR: traffic.AnyIPv4, Ports: traffic.Ephemeral, Action: Allow, Optional: true, Return: true},
		},
	}}
	assert.Error(t, VerifySymmetry(acls))

	acls[0].Rules[1].Optional = false
	assert.NoError(t, VerifySymmetry(acls))
}

func TestVerifySymmetry_PeerMismatch(t *testing.T) {
	acls, err := Plan(referenceTopology(t, 3), traffic.WebTierPolicy(lbTier, webTier), traffic.Profile{}, nil)
	require.NoError(t, err)
	require.NoError(t, VerifySymmetry(acls))

	// Drop one forwarded ingress rule from the web tier.
	web := acls[1]
	var kept []Rule
	for _, r := range web.Rules {
		if r.Name != "Incoming_HTTP_forward_CdkEc2ElbPubSubnet3" {
			kept = append(kept, r)
		}
	}
	web.Rules = kept
	acls[1] = web

	err = VerifySymmetry(acls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tiernet.ErrRuleConflict))
	assert.Contains(t, err.Error(), "10.255.248.32/28")
}

func TestPlan_Idempotent(t *testing.T) {
	policy := traffic.WebTierPolicy(lbTier, webTier)
	first, err := Plan(referenceTopology(t, 3), policy, traffic.Profile{DirectAccess: true}, nil)
	require.NoError(t, err)
	second, err := Plan(referenceTopology(t, 3), policy, traffic.Profile{DirectAccess: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(first), fmt.Sprint(second))
}
