package intrinsics

import (
	"encoding/json"
)

// PolicyVersion is the IAM policy language version.
const PolicyVersion = "2012-10-17"

// Any collects items into the []any list fields typed resources use.
func Any(items ...any) []any {
	return items
}

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument returns a document at PolicyVersion.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: PolicyVersion, Statement: statements}
}

// PolicyStatement is one statement. Action and Resource take a string, a
// list or an intrinsic.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
}

// Allow is an Allow statement granting actions on resource.
func Allow(resource any, actions ...string) PolicyStatement {
	return PolicyStatement{Effect: "Allow", Action: actions, Resource: resource}
}

// AssumeRoleFor lets the given services assume the role.
func AssumeRoleFor(services ...any) PolicyStatement {
	return PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal(services),
		Action:    "sts:AssumeRole",
	}
}

// ServicePrincipal is a {"Service": ...} principal. A single service
// serializes as a string.
type ServicePrincipal []any

func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}
