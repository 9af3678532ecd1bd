// Package ssm provides typed AWS::SSM resources.
package ssm

// Parameter is AWS::SSM::Parameter.
type Parameter struct {
	Name        string `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
	Type        string `json:"Type"`
	Value       string `json:"Value"`
	Tier        string `json:"Tier,omitempty"`
}

func (Parameter) ResourceType() string { return "AWS::SSM::Parameter" }
