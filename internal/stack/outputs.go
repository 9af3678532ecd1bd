package stack

import (
	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

func (r *renderer) outputs() {
	topo := r.plan.Topology
	r.stack.Outputs["VpcId"] = tiernet.Output{
		Description: "VPC holding the tiers",
		Value:       intrinsics.RefTo(topo.VPCID),
		Export:      &tiernet.OutputName{Name: intrinsics.StackScoped("VpcId")},
	}
	r.stack.Outputs["LoadBalancerDNS"] = tiernet.Output{
		Description: "Public DNS name of the load balancer",
		Value:       intrinsics.AttOf(LoadBalancerID, "DNSName"),
	}
	r.stack.Outputs["AgentConfigParameter"] = tiernet.Output{
		Description: AgentConfigDescription,
		Value:       intrinsics.RefTo(ParameterID(r.opts.ParameterName)),
	}
	for _, tier := range topo.Tiers {
		for _, s := range tier.Subnets {
			r.stack.Outputs[s.ID] = tiernet.Output{
				Description: tier.Spec.Name + " subnet " + s.CIDR.String(),
				Value:       intrinsics.RefTo(s.ID),
			}
		}
	}
}
