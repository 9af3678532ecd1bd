package plan

import (
	"fmt"
	"io"
	"strings"
)

// Summary is the serializable overview printed by `tiernet plan`.
type Summary struct {
	Stack          string         `json:"stack"`
	CIDR           string         `json:"cidr"`
	Profile        string         `json:"profile"`
	Utilization    string         `json:"utilization_percent"`
	FreeAddresses  uint64         `json:"free_addresses"`
	RouteTable     string         `json:"route_table"`
	Associations   int            `json:"associations"`
	Tiers          []TierSummary  `json:"tiers"`
	ACLs           []ACLSummary   `json:"acls"`
	SecurityGroups []GroupSummary `json:"security_groups"`
}

// TierSummary describes one tier.
type TierSummary struct {
	Name     string   `json:"name"`
	Exposure string   `json:"exposure"`
	Subnets  []string `json:"subnets"`
}

// ACLSummary lists ACL rules as text.
type ACLSummary struct {
	Name    string   `json:"name"`
	Ingress []string `json:"ingress"`
	Egress  []string `json:"egress"`
}

// GroupSummary lists security group rules as text.
type GroupSummary struct {
	Name    string   `json:"name"`
	Ingress []string `json:"ingress"`
	Egress  []string `json:"egress"`
}

// Summarize builds the Summary of p.
func (p *Plan) Summarize() Summary {
	topo := p.Topology
	s := Summary{
		Stack:         topo.Spec.StackName,
		CIDR:          topo.Base.String(),
		Profile:       p.Profile.Name(),
		Utilization:   topo.Utilization().StringFixed(2),
		FreeAddresses: topo.Free(),
		RouteTable:    topo.RouteTable.DisplayName,
		Associations:  len(topo.RouteTable.Associations),
	}
	for _, t := range topo.Tiers {
		ts := TierSummary{Name: t.Spec.Name, Exposure: string(t.Spec.Exposure)}
		for _, sub := range t.Subnets {
			ts.Subnets = append(ts.Subnets, fmt.Sprintf("%s %s", sub.ID, sub.CIDR.String()))
		}
		s.Tiers = append(s.Tiers, ts)
	}
	for _, a := range p.ACLs {
		as := ACLSummary{Name: a.Name}
		for _, r := range a.Ingress() {
			as.Ingress = append(as.Ingress, r.String())
		}
		for _, r := range a.Egress() {
			as.Egress = append(as.Egress, r.String())
		}
		s.ACLs = append(s.ACLs, as)
	}
	for _, g := range p.SecurityGroups {
		gs := GroupSummary{Name: g.Name}
		for _, r := range g.Ingress {
			gs.Ingress = append(gs.Ingress, r.String())
		}
		for _, r := range g.Egress {
			gs.Egress = append(gs.Egress, r.String())
		}
		s.SecurityGroups = append(s.SecurityGroups, gs)
	}
	return s
}

// WriteText prints s for humans.
func (s Summary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Stack %s  %s  profile=%s\n", s.Stack, s.CIDR, s.Profile)
	fmt.Fprintf(w, "Allocated %s%% (%d addresses free)\n\n", s.Utilization, s.FreeAddresses)

	fmt.Fprintln(w, "Tiers:")
	for _, t := range s.Tiers {
		fmt.Fprintf(w, "  %s (%s)\n", t.Name, t.Exposure)
		for _, sub := range t.Subnets {
			fmt.Fprintf(w, "    %s\n", sub)
		}
	}
	fmt.Fprintf(w, "\nRoute table %s: 0.0.0.0/0 -> internet gateway, %d associations\n", s.RouteTable, s.Associations)

	for _, a := range s.ACLs {
		fmt.Fprintf(w, "\nNetwork ACL %s\n", a.Name)
		writeRules(w, "ingress", a.Ingress)
		writeRules(w, "egress", a.Egress)
	}
	for _, g := range s.SecurityGroups {
		fmt.Fprintf(w, "\nSecurity group %s\n", g.Name)
		writeRules(w, "ingress", g.Ingress)
		writeRules(w, "egress", g.Egress)
	}
}

func writeRules(w io.Writer, label string, rules []string) {
	if len(rules) == 0 {
		fmt.Fprintf(w, "  %s: (none)\n", label)
		return
	}
	fmt.Fprintf(w, "  %s:\n    %s\n", label, strings.Join(rules, "\n    "))
}
