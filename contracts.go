// Package tiernet plans two-tier AWS networks and renders them as CloudFormation.
//
// A small network description (base CIDR, AZ count, named subnet tiers) is expanded
// into subnets, one shared route table, per-tier network ACLs and security groups:
//
//	spec := network.NetworkSpec{
//	    CIDR:   "10.255.248.0/21",
//	    MaxAZs: 3,
//	    Tiers: []network.SubnetTierSpec{
//	        {Name: "cdk_ec2_elb_pub", CIDRMask: 28, Exposure: network.ExposurePublic},
//	        {Name: "cdk_ec2_web_priv", CIDRMask: 26, Exposure: network.ExposureIsolated},
//	    },
//	}
//
// The tiernet CLI turns the resulting plan into a dependency-ordered
// CloudFormation template. Nothing here talks to AWS.
package tiernet

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All typed resources (ec2.VPC, iam.Role, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::EC2::VPC")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["WebServerRole", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "DNSName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Declaration is a single resource the planner asks the provisioning engine to create.
type Declaration struct {
	// Name is the CloudFormation logical ID
	Name string
	// Resource is the typed resource value
	Resource Resource
	// DependsOn lists explicit ordering edges not implied by references
	DependsOn []string
	// UpdatePolicy is passed through to the resource definition
	UpdatePolicy map[string]any
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type         string         `json:"Type" yaml:"Type"`
	Properties   map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn    []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	UpdatePolicy map[string]any `json:"UpdatePolicy,omitempty" yaml:"UpdatePolicy,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type        string `json:"Type" yaml:"Type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default     any    `json:"Default,omitempty" yaml:"Default,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string      `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any         `json:"Value" yaml:"Value"`
	Export      *OutputName `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputName is the export name of an output.
type OutputName struct {
	Name any `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `tiernet build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `tiernet validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `tiernet list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TemplateDiff groups resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// OptimizeSuggestion is a single advisory finding about a plan.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary tallies suggestions by category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}
