package ec2

import (
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

// SecurityGroup is AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	GroupDescription     string                  `json:"GroupDescription"`
	GroupName            string                  `json:"GroupName,omitempty"`
	VpcId                any                     `json:"VpcId"`
	SecurityGroupIngress []SecurityGroup_Ingress `json:"SecurityGroupIngress,omitempty"`
	SecurityGroupEgress  []SecurityGroup_Egress  `json:"SecurityGroupEgress,omitempty"`
	Tags                 []intrinsics.Tag        `json:"Tags,omitempty"`
}

func (SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// SecurityGroup_Ingress is an inline ingress rule.
type SecurityGroup_Ingress struct {
	Description string `json:"Description,omitempty"`
	IpProtocol  string `json:"IpProtocol"`
	FromPort    int    `json:"FromPort"`
	ToPort      int    `json:"ToPort"`
	CidrIp      string `json:"CidrIp,omitempty"`
}

// SecurityGroup_Egress is an inline egress rule.
type SecurityGroup_Egress struct {
	Description string `json:"Description,omitempty"`
	IpProtocol  string `json:"IpProtocol"`
	FromPort    int    `json:"FromPort"`
	ToPort      int    `json:"ToPort"`
	CidrIp      string `json:"CidrIp,omitempty"`
}

// SecurityGroupIngress is the standalone AWS::EC2::SecurityGroupIngress resource.
// Used for group-to-group rules so two groups can reference each other.
type SecurityGroupIngress struct {
	GroupId               any    `json:"GroupId"`
	Description           string `json:"Description,omitempty"`
	IpProtocol            string `json:"IpProtocol"`
	FromPort              int    `json:"FromPort"`
	ToPort                int    `json:"ToPort"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
}

func (SecurityGroupIngress) ResourceType() string { return "AWS::EC2::SecurityGroupIngress" }

// SecurityGroupEgress is the standalone AWS::EC2::SecurityGroupEgress resource.
type SecurityGroupEgress struct {
	GroupId                    any    `json:"GroupId"`
	Description                string `json:"Description,omitempty"`
	IpProtocol                 string `json:"IpProtocol"`
	FromPort                   int    `json:"FromPort"`
	ToPort                     int    `json:"ToPort"`
	DestinationSecurityGroupId any    `json:"DestinationSecurityGroupId,omitempty"`
}

func (SecurityGroupEgress) ResourceType() string { return "AWS::EC2::SecurityGroupEgress" }
