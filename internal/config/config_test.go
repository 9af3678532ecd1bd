package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "CdkEc2SetupStack", cfg.Stack.Name)
	assert.Equal(t, "10.255.248.0/21", cfg.Network.CIDR)
	assert.Equal(t, 3, cfg.Network.MaxAZs)
	require.Len(t, cfg.Tiers, 2)
	assert.Equal(t, ".", cfg.PayloadDir())
	assert.False(t, cfg.Profile().DirectAccess)

	spec, err := cfg.NetworkSpec()
	require.NoError(t, err)
	assert.Equal(t, network.ExposureIsolated, spec.Tiers[1].Exposure)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, traffic.WebTierPolicy("cdk_ec2_elb_pub", "cdk_ec2_web_priv"), policy)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tiernet.yaml", `
stack:
  name: DemoStack
network:
  cidr: 10.0.0.0/20
  max_azs: 2
tiers:
  - name: lb
    cidr_mask: 27
    exposure: public
  - name: web
    cidr_mask: 25
    exposure: isolated
traffic:
  lb_tier: lb
  web_tier: web
  direct_access: true
payloads:
  dir: payloads
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DemoStack", cfg.Stack.Name)
	assert.Equal(t, network.DefaultVPCName, cfg.Stack.VPCName, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.Network.MaxAZs)
	assert.Equal(t, "lb", cfg.Tiers[0].Name)
	assert.True(t, cfg.Profile().DirectAccess)
	assert.Equal(t, "t2.micro", cfg.Compute.InstanceType)
	assert.Equal(t, filepath.Join(dir, "payloads"), cfg.PayloadDir())
	assert.Equal(t, []string{
		path,
		filepath.Join(dir, "payloads", "CWUA_config.json"),
		filepath.Join(dir, "payloads", "EC2_user_data_script.sh"),
	}, cfg.WatchPaths())
}

func TestLoad_HCL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tiernet.hcl", `
stack {
  name = "HclStack"
}

network {
  cidr    = "10.1.0.0/21"
  max_azs = 2
}

tier "edge" {
  cidr_mask = 28
  exposure  = "public"
}

tier "app" {
  cidr_mask = 26
  exposure  = "isolated"
}

traffic {
  flow {
    from  = "internet"
    to    = "edge"
    ports = "https"
    rule  = 100
  }
  flow {
    from  = "edge"
    to    = "app"
    ports = "8080"
  }
}

compute {
  max_capacity = 4
}

logging {
  level = "debug"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "HclStack", cfg.Stack.Name)
	assert.Equal(t, "10.1.0.0/21", cfg.Network.CIDR)
	require.Len(t, cfg.Tiers, 2)
	assert.Equal(t, TierConfig{Name: "app", CIDRMask: 26, Exposure: "isolated"}, cfg.Tiers[1])
	assert.Equal(t, 4, cfg.Compute.MaxCapacity)
	assert.Equal(t, 1, cfg.Compute.MinCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, dir, cfg.PayloadDir())

	policy, err := cfg.Policy()
	require.NoError(t, err)
	require.Len(t, policy.Flows, 2)
	assert.Equal(t, traffic.HTTPS, policy.Flows[0].Ports)
	assert.Equal(t, traffic.Port(8080), policy.Flows[1].Ports)
	assert.Equal(t, traffic.Tier("app"), policy.Flows[1].To)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvStackName, "EnvStack")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "EnvStack", cfg.Stack.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		field   string
	}{
		{"bad yaml", "bad.yaml", "network: [", "config file"},
		{"bad hcl", "bad.hcl", "network {", "config file"},
		{"capacity", "cap.yaml", "compute:\n  min_capacity: 4\n  max_capacity: 3\n", "compute.capacity"},
		{"desired", "desired.yaml", "compute:\n  desired_capacity: 9\n", "compute.desired_capacity"},
		{"batch", "batch.yaml", "compute:\n  max_batch_size: 0\n", "compute.max_batch_size"},
		{"parameter name", "param.yaml", "payloads:\n  parameter_name: agent-config\n", "payloads.parameter_name"},
		{"bad ports", "ports.yaml", "traffic:\n  flows:\n    - {from: internet, to: lb, ports: web, rule: 100}\n", "traffic.flows[0].ports"},
		{"no tiers for policy", "policy.yaml", "traffic:\n  lb_tier: \"\"\n", "traffic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, dir, tt.file, tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)

			var cfgErr *tiernet.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tiernet.ErrConfig))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNetworkSpec_BadExposure(t *testing.T) {
	cfg := Default()
	cfg.Tiers[0].Exposure = "private"
	_, err := cfg.NetworkSpec()
	assert.True(t, errors.Is(err, tiernet.ErrConfig))
}
