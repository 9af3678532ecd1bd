package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/lex00/wetwire-tiernet-go/internal/logging"
)

// hclFile mirrors Config for HCL. Every block and attribute is optional and
// only present values override the defaults.
//
//	stack { name = "DemoStack" }
//	network {
//	  cidr    = "10.0.0.0/21"
//	  max_azs = 2
//	}
//	tier "lb" {
//	  cidr_mask = 28
//	  exposure  = "public"
//	}
type hclFile struct {
	Stack    *hclStack    `hcl:"stack,block"`
	Network  *hclNetwork  `hcl:"network,block"`
	Tiers    []hclTier    `hcl:"tier,block"`
	Traffic  *hclTraffic  `hcl:"traffic,block"`
	Compute  *hclCompute  `hcl:"compute,block"`
	Payloads *hclPayloads `hcl:"payloads,block"`
	Logging  *hclLogging  `hcl:"logging,block"`
}

type hclStack struct {
	Name           *string `hcl:"name,optional"`
	Description    *string `hcl:"description,optional"`
	VPCName        *string `hcl:"vpc_name,optional"`
	RouteTableName *string `hcl:"route_table_name,optional"`
}

type hclNetwork struct {
	CIDR              *string  `hcl:"cidr,optional"`
	MaxAZs            *int     `hcl:"max_azs,optional"`
	NatGateways       *int     `hcl:"nat_gateways,optional"`
	AvailabilityZones []string `hcl:"availability_zones,optional"`
}

type hclTier struct {
	Name     string `hcl:"name,label"`
	CIDRMask int    `hcl:"cidr_mask"`
	Exposure string `hcl:"exposure"`
}

type hclTraffic struct {
	DirectAccess     *bool     `hcl:"direct_access,optional"`
	LoadBalancerTier *string   `hcl:"lb_tier,optional"`
	WebTier          *string   `hcl:"web_tier,optional"`
	Flows            []hclFlow `hcl:"flow,block"`
}

type hclFlow struct {
	From               string `hcl:"from"`
	To                 string `hcl:"to"`
	Ports              string `hcl:"ports"`
	Service            string `hcl:"service,optional"`
	Rule               int    `hcl:"rule,optional"`
	ReturnRule         int    `hcl:"return_rule,optional"`
	Optional           bool   `hcl:"optional,optional"`
	IngressDescription string `hcl:"ingress_description,optional"`
	EgressDescription  string `hcl:"egress_description,optional"`
}

type hclCompute struct {
	GroupName           *string `hcl:"group_name,optional"`
	RoleName            *string `hcl:"role_name,optional"`
	InstanceType        *string `hcl:"instance_type,optional"`
	KeyName             *string `hcl:"key_name,optional"`
	ImageParameter      *string `hcl:"image_parameter,optional"`
	MinCapacity         *int    `hcl:"min_capacity,optional"`
	MaxCapacity         *int    `hcl:"max_capacity,optional"`
	DesiredCapacity     *int    `hcl:"desired_capacity,optional"`
	MinInService        *int    `hcl:"min_in_service,optional"`
	MaxBatchSize        *int    `hcl:"max_batch_size,optional"`
	HealthCheckPath     *string `hcl:"health_check_path,optional"`
	HealthCheckInterval *int    `hcl:"health_check_interval,optional"`
}

type hclPayloads struct {
	Dir           *string `hcl:"dir,optional"`
	AgentConfig   *string `hcl:"agent_config,optional"`
	UserData      *string `hcl:"user_data,optional"`
	ParameterName *string `hcl:"parameter_name,optional"`
}

type hclLogging struct {
	Level       *string `hcl:"level,optional"`
	Format      *string `hcl:"format,optional"`
	Output      *string `hcl:"output,optional"`
	Development *bool   `hcl:"development,optional"`
}

func decodeHCL(filename string, src []byte, cfg *Config) error {
	var f hclFile
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return err
	}
	f.apply(cfg)
	return nil
}

func (f *hclFile) apply(cfg *Config) {
	if s := f.Stack; s != nil {
		set(&cfg.Stack.Name, s.Name)
		set(&cfg.Stack.Description, s.Description)
		set(&cfg.Stack.VPCName, s.VPCName)
		set(&cfg.Stack.RouteTableName, s.RouteTableName)
	}
	if n := f.Network; n != nil {
		set(&cfg.Network.CIDR, n.CIDR)
		set(&cfg.Network.MaxAZs, n.MaxAZs)
		set(&cfg.Network.NatGateways, n.NatGateways)
		if n.AvailabilityZones != nil {
			cfg.Network.AvailabilityZones = n.AvailabilityZones
		}
	}
	if len(f.Tiers) > 0 {
		cfg.Tiers = make([]TierConfig, len(f.Tiers))
		for i, t := range f.Tiers {
			cfg.Tiers[i] = TierConfig(t)
		}
	}
	if t := f.Traffic; t != nil {
		set(&cfg.Traffic.DirectAccess, t.DirectAccess)
		set(&cfg.Traffic.LoadBalancerTier, t.LoadBalancerTier)
		set(&cfg.Traffic.WebTier, t.WebTier)
		if len(t.Flows) > 0 {
			cfg.Traffic.Flows = make([]FlowConfig, len(t.Flows))
			for i, fl := range t.Flows {
				cfg.Traffic.Flows[i] = FlowConfig(fl)
			}
		}
	}
	if c := f.Compute; c != nil {
		set(&cfg.Compute.GroupName, c.GroupName)
		set(&cfg.Compute.RoleName, c.RoleName)
		set(&cfg.Compute.InstanceType, c.InstanceType)
		set(&cfg.Compute.KeyName, c.KeyName)
		set(&cfg.Compute.ImageParameter, c.ImageParameter)
		set(&cfg.Compute.MinCapacity, c.MinCapacity)
		set(&cfg.Compute.MaxCapacity, c.MaxCapacity)
		set(&cfg.Compute.DesiredCapacity, c.DesiredCapacity)
		set(&cfg.Compute.MinInService, c.MinInService)
		set(&cfg.Compute.MaxBatchSize, c.MaxBatchSize)
		set(&cfg.Compute.HealthCheckPath, c.HealthCheckPath)
		set(&cfg.Compute.HealthCheckInterval, c.HealthCheckInterval)
	}
	if p := f.Payloads; p != nil {
		set(&cfg.Payloads.Dir, p.Dir)
		set(&cfg.Payloads.AgentConfig, p.AgentConfig)
		set(&cfg.Payloads.UserData, p.UserData)
		set(&cfg.Payloads.ParameterName, p.ParameterName)
	}
	if l := f.Logging; l != nil {
		applyLogging(&cfg.Logging, l)
	}
}

func applyLogging(dst *logging.Config, l *hclLogging) {
	set(&dst.Level, l.Level)
	set(&dst.Format, l.Format)
	set(&dst.Output, l.Output)
	set(&dst.Development, l.Development)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
