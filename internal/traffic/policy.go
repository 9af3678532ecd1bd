package traffic

// WebTierPolicy returns the two-tier web pattern: the load balancer tier takes
// HTTP from the internet and forwards it to the web tier, which may call out
// over HTTPS and HTTP. Direct HTTP and SSH into the web tier are optional.
func WebTierPolicy(lbTier, webTier string) Policy {
	lb, web := Tier(lbTier), Tier(webTier)
	return Policy{Flows: []Flow{
		{
			From: Internet, To: lb, Ports: HTTP, Rule: 100,
			IngressDescription: "Allow HTTP requests from Internet.",
		},
		{
			From: lb, To: web, Ports: HTTP,
			EgressDescription:  "Forward HTTP requests to internal web servers.",
			IngressDescription: "Allow HTTP forwarding from load balancers.",
		},
		{
			From: web, To: Internet, Ports: HTTPS, Rule: 200,
			EgressDescription: "Allow HTTPS requests to external web servers.",
		},
		{
			From: web, To: Internet, Ports: HTTP, Rule: 201, ReturnRule: 200,
			EgressDescription: "Allow HTTP requests to external web servers.",
		},
		{
			From: Internet, To: web, Ports: HTTP, Rule: 500, ReturnRule: 300, Optional: true,
			IngressDescription: "Allow direct HTTP requests from Internet.",
		},
		{
			From: Internet, To: web, Ports: SSH, Rule: 501, ReturnRule: 300, Optional: true,
			IngressDescription: "Allow SSH requests from Internet.",
		},
	}}
}
