package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorts(t *testing.T) {
	tests := []struct {
		input   string
		want    PortRange
		wantErr bool
	}{
		{"http", HTTP, false},
		{"HTTPS", HTTPS, false},
		{"ssh", SSH, false},
		{"ephemeral", Ephemeral, false},
		{"8080", Port(8080), false},
		{"1024-65535", Ephemeral, false},
		{"3000 - 3010", PortRange{From: 3000, To: 3010}, false},
		{"70000", PortRange{}, true},
		{"90-80", PortRange{}, true},
		{"web", PortRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePorts(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortRange_Service(t *testing.T) {
	assert.Equal(t, "HTTP", HTTP.Service())
	assert.Equal(t, "ephemeral", Ephemeral.Service())
	assert.Equal(t, "TCP8080", Port(8080).Service())
	assert.Equal(t, "TCP3000to3010", PortRange{From: 3000, To: 3010}.Service())
	assert.Equal(t, "1024-65535", Ephemeral.String())
}

func TestPolicy_Active(t *testing.T) {
	p := WebTierPolicy("lb", "web")

	standard := p.Active(Profile{})
	assert.Len(t, standard, 4)
	for _, f := range standard {
		assert.False(t, f.Optional, f.String())
	}

	direct := p.Active(Profile{DirectAccess: true})
	require.Len(t, direct, 6)
	assert.True(t, direct[4].Optional)
	assert.Equal(t, SSH, direct[5].Ports)
	assert.Equal(t, direct, p.Ordered())
}

func TestPolicy_Tiers(t *testing.T) {
	assert.Equal(t, []string{"lb", "web"}, WebTierPolicy("lb", "web").Tiers())
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, WebTierPolicy("lb", "web").Validate())

	tests := []struct {
		name string
		flow Flow
	}{
		{"same endpoints", Flow{From: "a", To: "a", Ports: HTTP}},
		{"missing endpoint", Flow{From: "a", Ports: HTTP}},
		{"bad ports", Flow{From: "a", To: "b", Ports: PortRange{From: 9, To: 1}}},
		{"internet without number", Flow{From: Internet, To: "b", Ports: HTTP}},
		{"number too high", Flow{From: Internet, To: "b", Ports: HTTP, Rule: 40000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Policy{Flows: []Flow{tt.flow}}.Validate())
		})
	}

	assert.Error(t, Policy{}.Validate())
}

func TestFlow_ReturnNumber(t *testing.T) {
	assert.Equal(t, 100, Flow{Rule: 100}.ReturnNumber())
	assert.Equal(t, 200, Flow{Rule: 201, ReturnRule: 200}.ReturnNumber())
	assert.Equal(t, "HTTP", Flow{Ports: HTTP}.Name())
	assert.Equal(t, "Web", Flow{Service: "Web", Ports: HTTP}.Name())
}

func TestProfile_Name(t *testing.T) {
	assert.Equal(t, "standard", Profile{}.Name())
	assert.Equal(t, "direct-access", Profile{DirectAccess: true}.Name())
}
