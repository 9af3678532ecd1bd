// Package iam provides typed AWS::IAM resources.
package iam

import (
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

// Role is AWS::IAM::Role.
type Role struct {
	RoleName                 string                    `json:"RoleName,omitempty"`
	Description              string                    `json:"Description,omitempty"`
	AssumeRolePolicyDocument intrinsics.PolicyDocument `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any                     `json:"ManagedPolicyArns,omitempty"`
	Tags                     []intrinsics.Tag          `json:"Tags,omitempty"`
}

func (Role) ResourceType() string { return "AWS::IAM::Role" }

// Policy is AWS::IAM::Policy, an inline policy attached to roles.
type Policy struct {
	PolicyName     string                    `json:"PolicyName"`
	PolicyDocument intrinsics.PolicyDocument `json:"PolicyDocument"`
	Roles          []any                     `json:"Roles,omitempty"`
}

func (Policy) ResourceType() string { return "AWS::IAM::Policy" }

// InstanceProfile is AWS::IAM::InstanceProfile.
type InstanceProfile struct {
	Roles []any `json:"Roles"`
}

func (InstanceProfile) ResourceType() string { return "AWS::IAM::InstanceProfile" }

// ManagedPolicyArn returns the ARN of an AWS managed policy in the stack's partition.
func ManagedPolicyArn(name string) intrinsics.Sub {
	return intrinsics.Sub{String: "arn:" + intrinsics.Var(intrinsics.Partition) + ":iam::aws:policy/" + name}
}
