// Package elasticloadbalancingv2 provides typed AWS::ElasticLoadBalancingV2 resources.
package elasticloadbalancingv2

// LoadBalancer is AWS::ElasticLoadBalancingV2::LoadBalancer.
type LoadBalancer struct {
	Name           string `json:"Name,omitempty"`
	Type           string `json:"Type,omitempty"`
	Scheme         string `json:"Scheme,omitempty"`
	Subnets        []any  `json:"Subnets,omitempty"`
	SecurityGroups []any  `json:"SecurityGroups,omitempty"`
}

func (LoadBalancer) ResourceType() string { return "AWS::ElasticLoadBalancingV2::LoadBalancer" }

// TargetGroup is AWS::ElasticLoadBalancingV2::TargetGroup.
type TargetGroup struct {
	Port                       int    `json:"Port"`
	Protocol                   string `json:"Protocol"`
	TargetType                 string `json:"TargetType,omitempty"`
	VpcId                      any    `json:"VpcId"`
	HealthCheckPath            string `json:"HealthCheckPath,omitempty"`
	HealthCheckIntervalSeconds int    `json:"HealthCheckIntervalSeconds,omitempty"`
}

func (TargetGroup) ResourceType() string { return "AWS::ElasticLoadBalancingV2::TargetGroup" }

// Listener is AWS::ElasticLoadBalancingV2::Listener.
type Listener struct {
	LoadBalancerArn any               `json:"LoadBalancerArn"`
	Port            int               `json:"Port"`
	Protocol        string            `json:"Protocol"`
	DefaultActions  []Listener_Action `json:"DefaultActions"`
}

func (Listener) ResourceType() string { return "AWS::ElasticLoadBalancingV2::Listener" }

// Listener_Action is a listener default action.
type Listener_Action struct {
	Type           string `json:"Type"`
	TargetGroupArn any    `json:"TargetGroupArn,omitempty"`
}
