// Package config loads the deployment configuration from YAML or HCL.
//
// Defaults reproduce the reference two-tier stack, so an empty file (or no
// file at all) plans the same network. Environment variables override the
// logging settings and the stack name.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/logging"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/traffic"
)

// Environment variables read by Load.
const (
	EnvLogLevel  = "TIERNET_LOG_LEVEL"
	EnvLogFormat = "TIERNET_LOG_FORMAT"
	EnvStackName = "TIERNET_STACK_NAME"
)

// Config is the deployment configuration.
type Config struct {
	Stack    StackConfig    `yaml:"stack"`
	Network  NetworkConfig  `yaml:"network"`
	Tiers    []TierConfig   `yaml:"tiers"`
	Traffic  TrafficConfig  `yaml:"traffic"`
	Compute  ComputeConfig  `yaml:"compute"`
	Payloads PayloadConfig  `yaml:"payloads"`
	Logging  logging.Config `yaml:"logging"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `yaml:"-"`
}

// StackConfig names the stack and its network constructs.
type StackConfig struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	VPCName        string `yaml:"vpc_name"`
	RouteTableName string `yaml:"route_table_name"`
}

// NetworkConfig is the base block and AZ layout.
type NetworkConfig struct {
	CIDR              string   `yaml:"cidr"`
	MaxAZs            int      `yaml:"max_azs"`
	NatGateways       int      `yaml:"nat_gateways"`
	AvailabilityZones []string `yaml:"availability_zones"`
}

// TierConfig declares one subnet tier.
type TierConfig struct {
	Name     string `yaml:"name"`
	CIDRMask int    `yaml:"cidr_mask"`
	Exposure string `yaml:"exposure"`
}

// TrafficConfig selects the traffic policy.
//
// With no flows listed, the web tier policy between LoadBalancerTier and
// WebTier is used.
type TrafficConfig struct {
	DirectAccess     bool         `yaml:"direct_access"`
	LoadBalancerTier string       `yaml:"lb_tier"`
	WebTier          string       `yaml:"web_tier"`
	Flows            []FlowConfig `yaml:"flows"`
}

// FlowConfig is one flow; see traffic.Flow.
type FlowConfig struct {
	From               string `yaml:"from"`
	To                 string `yaml:"to"`
	Ports              string `yaml:"ports"`
	Service            string `yaml:"service"`
	Rule               int    `yaml:"rule"`
	ReturnRule         int    `yaml:"return_rule"`
	Optional           bool   `yaml:"optional"`
	IngressDescription string `yaml:"ingress_description"`
	EgressDescription  string `yaml:"egress_description"`
}

// ComputeConfig sizes the web server fleet behind the load balancer.
type ComputeConfig struct {
	GroupName           string `yaml:"group_name"`
	RoleName            string `yaml:"role_name"`
	InstanceType        string `yaml:"instance_type"`
	KeyName             string `yaml:"key_name"`
	ImageParameter      string `yaml:"image_parameter"`
	MinCapacity         int    `yaml:"min_capacity"`
	MaxCapacity         int    `yaml:"max_capacity"`
	DesiredCapacity     int    `yaml:"desired_capacity"`
	MinInService        int    `yaml:"min_in_service"`
	MaxBatchSize        int    `yaml:"max_batch_size"`
	HealthCheckPath     string `yaml:"health_check_path"`
	HealthCheckInterval int    `yaml:"health_check_interval"`
}

// PayloadConfig locates the two text payloads.
type PayloadConfig struct {
	// Dir defaults to the config file's directory.
	Dir           string `yaml:"dir"`
	AgentConfig   string `yaml:"agent_config"`
	UserData      string `yaml:"user_data"`
	ParameterName string `yaml:"parameter_name"`
}

// Default returns the reference stack configuration.
func Default() *Config {
	return &Config{
		Stack: StackConfig{
			Name:           network.DefaultStackName,
			Description:    "Two-tier web stack: public load balancers, private web servers",
			VPCName:        network.DefaultVPCName,
			RouteTableName: network.DefaultRouteTableName,
		},
		Network: NetworkConfig{
			CIDR:   "10.255.248.0/21",
			MaxAZs: 3,
		},
		Tiers: []TierConfig{
			{Name: "cdk_ec2_elb_pub", CIDRMask: 28, Exposure: string(network.ExposurePublic)},
			{Name: "cdk_ec2_web_priv", CIDRMask: 26, Exposure: string(network.ExposureIsolated)},
		},
		Traffic: TrafficConfig{
			LoadBalancerTier: "cdk_ec2_elb_pub",
			WebTier:          "cdk_ec2_web_priv",
		},
		Compute: ComputeConfig{
			GroupName:           "AutoScalingWebServers",
			RoleName:            "cdk_ec2_role",
			InstanceType:        "t2.micro",
			KeyName:             "ec2_exps",
			ImageParameter:      "/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2",
			MinCapacity:         1,
			MaxCapacity:         3,
			DesiredCapacity:     1,
			MinInService:        1,
			MaxBatchSize:        2,
			HealthCheckPath:     "/index.html",
			HealthCheckInterval: 120,
		},
		Payloads: PayloadConfig{
			AgentConfig:   "CWUA_config.json",
			UserData:      "EC2_user_data_script.sh",
			ParameterName: "AmazonCloudWatch-cdk-ec2-demo-config",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path (YAML, or HCL for .hcl files) over the defaults and applies
// environment overrides. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &tiernet.ConfigError{Field: "config file", Value: path, Reason: "not found", Err: err}
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".hcl":
			err = decodeHCL(path, data, cfg)
		default:
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, &tiernet.ConfigError{Field: "config file", Value: path, Reason: err.Error(), Err: err}
		}
		cfg.Path = path
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvStackName); v != "" {
		c.Stack.Name = v
	}
}

// Validate checks the fields the planners do not own. Network and tier
// inputs are validated by the topology planner.
func (c *Config) Validate() error {
	if c.Stack.Name == "" {
		return tiernet.NewConfigError("stack.name", nil, "must not be empty")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	comp := c.Compute
	if comp.MinCapacity < 0 || comp.MaxCapacity < 1 || comp.MinCapacity > comp.MaxCapacity {
		return tiernet.NewConfigError("compute.capacity", fmt.Sprintf("%d..%d", comp.MinCapacity, comp.MaxCapacity), "min must be <= max and max >= 1")
	}
	if comp.DesiredCapacity < comp.MinCapacity || comp.DesiredCapacity > comp.MaxCapacity {
		return tiernet.NewConfigError("compute.desired_capacity", comp.DesiredCapacity, "must be between %d and %d", comp.MinCapacity, comp.MaxCapacity)
	}
	if comp.MaxBatchSize < 1 {
		return tiernet.NewConfigError("compute.max_batch_size", comp.MaxBatchSize, "must be at least 1")
	}
	if comp.MinInService < 0 || comp.MinInService >= comp.MaxCapacity {
		return tiernet.NewConfigError("compute.min_in_service", comp.MinInService, "must be below max capacity %d", comp.MaxCapacity)
	}
	if comp.HealthCheckInterval < 5 || comp.HealthCheckInterval > 300 {
		return tiernet.NewConfigError("compute.health_check_interval", comp.HealthCheckInterval, "must be between 5 and 300 seconds")
	}
	if !strings.HasPrefix(c.Payloads.ParameterName, "AmazonCloudWatch-") {
		return tiernet.NewConfigError("payloads.parameter_name", c.Payloads.ParameterName, "CloudWatch agent parameters must start with AmazonCloudWatch-")
	}
	return nil
}

// NetworkSpec converts the network and tier sections.
func (c *Config) NetworkSpec() (network.NetworkSpec, error) {
	spec := network.NetworkSpec{
		StackName:         c.Stack.Name,
		VPCName:           c.Stack.VPCName,
		RouteTableName:    c.Stack.RouteTableName,
		CIDR:              c.Network.CIDR,
		MaxAZs:            c.Network.MaxAZs,
		NatGateways:       c.Network.NatGateways,
		AvailabilityZones: c.Network.AvailabilityZones,
	}
	for _, t := range c.Tiers {
		exp, err := network.ParseExposure(t.Exposure)
		if err != nil {
			return network.NetworkSpec{}, &tiernet.ConfigError{Field: "exposure", Value: t.Exposure, Reason: err.Error(), Err: err}
		}
		spec.Tiers = append(spec.Tiers, network.SubnetTierSpec{Name: t.Name, CIDRMask: t.CIDRMask, Exposure: exp})
	}
	return spec, nil
}

// Policy converts the traffic section.
func (c *Config) Policy() (traffic.Policy, error) {
	if len(c.Traffic.Flows) == 0 {
		if c.Traffic.LoadBalancerTier == "" || c.Traffic.WebTier == "" {
			return traffic.Policy{}, tiernet.NewConfigError("traffic", nil, "lb_tier and web_tier are required when no flows are listed")
		}
		return traffic.WebTierPolicy(c.Traffic.LoadBalancerTier, c.Traffic.WebTier), nil
	}

	var p traffic.Policy
	for i, fc := range c.Traffic.Flows {
		ports, err := traffic.ParsePorts(fc.Ports)
		if err != nil {
			return traffic.Policy{}, &tiernet.ConfigError{Field: fmt.Sprintf("traffic.flows[%d].ports", i), Value: fc.Ports, Reason: err.Error(), Err: err}
		}
		p.Flows = append(p.Flows, traffic.Flow{
			Service:            fc.Service,
			From:               traffic.Endpoint(fc.From),
			To:                 traffic.Endpoint(fc.To),
			Ports:              ports,
			Rule:               fc.Rule,
			ReturnRule:         fc.ReturnRule,
			Optional:           fc.Optional,
			IngressDescription: fc.IngressDescription,
			EgressDescription:  fc.EgressDescription,
		})
	}
	if err := p.Validate(); err != nil {
		return traffic.Policy{}, &tiernet.ConfigError{Field: "traffic.flows", Reason: err.Error(), Err: err}
	}
	return p, nil
}

// Profile returns the deployment profile.
func (c *Config) Profile() traffic.Profile {
	return traffic.Profile{DirectAccess: c.Traffic.DirectAccess}
}

// PayloadDir returns the directory payload files resolve against.
func (c *Config) PayloadDir() string {
	if c.Payloads.Dir != "" {
		if filepath.IsAbs(c.Payloads.Dir) || c.Path == "" {
			return c.Payloads.Dir
		}
		return filepath.Join(filepath.Dir(c.Path), c.Payloads.Dir)
	}
	if c.Path != "" {
		return filepath.Dir(c.Path)
	}
	return "."
}

// WatchPaths returns the files whose changes require a rebuild.
func (c *Config) WatchPaths() []string {
	var paths []string
	if c.Path != "" {
		paths = append(paths, c.Path)
	}
	dir := c.PayloadDir()
	return append(paths, filepath.Join(dir, c.Payloads.AgentConfig), filepath.Join(dir, c.Payloads.UserData))
}
