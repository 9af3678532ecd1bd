// Package traffic declares the flows both rule planners implement.
//
// A Flow is one allowed connection direction between two endpoints (the
// internet or a named tier). The ACL planner expands it into numbered,
// stateless forward and return rules; the security group planner expands
// it into stateful group rules.
package traffic

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint is either Internet or the name of a tier.
type Endpoint string

// Internet is the "any IPv4" endpoint.
const Internet Endpoint = "internet"

// AnyIPv4 is the CIDR used for Internet.
const AnyIPv4 = "0.0.0.0/0"

// Tier returns the endpoint for a named tier.
func Tier(name string) Endpoint { return Endpoint(name) }

// IsInternet reports whether e is the internet endpoint.
func (e Endpoint) IsInternet() bool { return e == Internet }

func (e Endpoint) String() string { return string(e) }

// PortRange is an inclusive TCP port range.
type PortRange struct {
	From int
	To   int
}

// Well-known port ranges.
var (
	HTTP      = PortRange{From: 80, To: 80}
	HTTPS     = PortRange{From: 443, To: 443}
	SSH       = PortRange{From: 22, To: 22}
	Ephemeral = PortRange{From: 1024, To: 65535}
)

var serviceNames = map[PortRange]string{
	HTTP:      "HTTP",
	HTTPS:     "HTTPS",
	SSH:       "SSH",
	Ephemeral: "ephemeral",
}

// Port returns a single-port range.
func Port(p int) PortRange { return PortRange{From: p, To: p} }

// Single reports whether the range is one port.
func (p PortRange) Single() bool { return p.From == p.To }

// Service names well-known ranges ("HTTP", "SSH") and falls back to the numeric form.
func (p PortRange) Service() string {
	if name, ok := serviceNames[p]; ok {
		return name
	}
	return "TCP" + strings.ReplaceAll(p.String(), "-", "to")
}

func (p PortRange) String() string {
	if p.Single() {
		return strconv.Itoa(p.From)
	}
	return fmt.Sprintf("%d-%d", p.From, p.To)
}

// Validate checks 0 <= From <= To <= 65535.
func (p PortRange) Validate() error {
	if p.From < 0 || p.To > 65535 || p.From > p.To {
		return fmt.Errorf("invalid port range %d-%d", p.From, p.To)
	}
	return nil
}

// ParsePorts accepts a service name (http, https, ssh, ephemeral), a port,
// or a "from-to" range.
func ParsePorts(s string) (PortRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for pr, name := range serviceNames {
		if strings.ToLower(name) == s {
			return pr, nil
		}
	}
	var pr PortRange
	if from, to, ok := strings.Cut(s, "-"); ok {
		f, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return PortRange{}, fmt.Errorf("invalid port range %q: %w", s, err)
		}
		t, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return PortRange{}, fmt.Errorf("invalid port range %q: %w", s, err)
		}
		pr = PortRange{From: f, To: t}
	} else {
		p, err := strconv.Atoi(s)
		if err != nil {
			return PortRange{}, fmt.Errorf("invalid port %q: %w", s, err)
		}
		pr = Port(p)
	}
	if err := pr.Validate(); err != nil {
		return PortRange{}, err
	}
	return pr, nil
}

// Flow is one allowed connection from From to To on Ports.
type Flow struct {
	// Service labels the flow in rule names, e.g. "HTTP". Defaults to Ports.Service().
	Service string
	From    Endpoint
	To      Endpoint
	Ports   PortRange

	// Rule is the fixed number for the any-IPv4 forward rule. Tier-to-tier
	// flows are enumerated per peer subnet and ignore it.
	Rule int
	// ReturnRule is the fixed number for the any-IPv4 ephemeral return rule.
	// Zero means Rule.
	ReturnRule int

	// Optional flows are only emitted when Profile.DirectAccess is on.
	Optional bool

	// IngressDescription and EgressDescription label the security group rules.
	IngressDescription string
	EgressDescription  string
}

// Name returns Service or the ports' service name.
func (f Flow) Name() string {
	if f.Service != "" {
		return f.Service
	}
	return f.Ports.Service()
}

// ReturnNumber returns the number used for the any-IPv4 return rule.
func (f Flow) ReturnNumber() int {
	if f.ReturnRule != 0 {
		return f.ReturnRule
	}
	return f.Rule
}

func (f Flow) String() string {
	opt := ""
	if f.Optional {
		opt = " (optional)"
	}
	return fmt.Sprintf("%s -> %s %s/%s%s", f.From, f.To, f.Name(), f.Ports, opt)
}

// Policy is the ordered set of flows.
type Policy struct {
	Flows []Flow
}

// Active returns the flows enabled by profile, primary flows first and
// optional flows after, each in declaration order.
func (p Policy) Active(profile Profile) []Flow {
	var out []Flow
	for _, f := range p.Flows {
		if !f.Optional {
			out = append(out, f)
		}
	}
	if profile.DirectAccess {
		for _, f := range p.Flows {
			if f.Optional {
				out = append(out, f)
			}
		}
	}
	return out
}

// Ordered returns every flow, primary flows first.
func (p Policy) Ordered() []Flow {
	return p.Active(Profile{DirectAccess: true})
}

// Tiers returns the tier endpoints referenced by the policy in first-seen order.
func (p Policy) Tiers() []string {
	seen := make(map[Endpoint]bool)
	var out []string
	for _, f := range p.Flows {
		for _, e := range []Endpoint{f.From, f.To} {
			if e.IsInternet() || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, string(e))
		}
	}
	return out
}

// Validate checks flow shape. Tier existence is checked by the planners.
func (p Policy) Validate() error {
	if len(p.Flows) == 0 {
		return fmt.Errorf("policy has no flows")
	}
	for i, f := range p.Flows {
		if f.From == "" || f.To == "" {
			return fmt.Errorf("flow %d: both endpoints are required", i)
		}
		if f.From == f.To {
			return fmt.Errorf("flow %d (%s): endpoints must differ", i, f)
		}
		if err := f.Ports.Validate(); err != nil {
			return fmt.Errorf("flow %d (%s): %w", i, f, err)
		}
		internet := f.From.IsInternet() || f.To.IsInternet()
		if internet && (f.Rule < 1 || f.Rule > 32766) {
			return fmt.Errorf("flow %d (%s): internet flows need a rule number in 1..32766", i, f)
		}
		if f.ReturnRule < 0 || f.ReturnRule > 32766 {
			return fmt.Errorf("flow %d (%s): return rule out of range", i, f)
		}
	}
	return nil
}

// Profile selects which optional flows are emitted.
type Profile struct {
	// DirectAccess opens the optional internet -> private tier flows
	// (direct HTTP and SSH) used for testing.
	DirectAccess bool
}

// Name returns "direct-access" or "standard".
func (p Profile) Name() string {
	if p.DirectAccess {
		return "direct-access"
	}
	return "standard"
}
