// Package intrinsics re-exports the CloudFormation intrinsic functions the
// stack renderer needs, with helpers for the references it makes most:
//
//	RefTo("Vpc")                → {"Ref": "Vpc"}
//	AttOf("CdkEc2WebPrivSg", "GroupId")
//	                            → {"Fn::GetAtt": ["CdkEc2WebPrivSg", "GroupId"]}
//	AZ(1)                       → {"Fn::Select": [1, {"Fn::GetAZs": ""}]}
//	StackScoped("VpcId")        → {"Fn::Sub": "${AWS::StackName}-VpcId"}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Aliases keep typed resources free of a direct schema dependency.
type (
	Ref    = intrinsics.Ref
	GetAtt = intrinsics.GetAtt
	Sub    = intrinsics.Sub
	Join   = intrinsics.Join
	Select = intrinsics.Select
	GetAZs = intrinsics.GetAZs
	Base64 = intrinsics.Base64
	Tag    = intrinsics.Tag
)

// RefTo returns a Ref to the given logical ID.
func RefTo(logicalID string) Ref {
	return Ref{LogicalName: logicalID}
}

// AttOf returns a GetAtt for the given logical ID and attribute.
func AttOf(logicalID, attribute string) GetAtt {
	return GetAtt{LogicalName: logicalID, Attribute: attribute}
}

// NameTag returns the conventional Name tag.
func NameTag(value any) Tag {
	return Tag{Key: "Name", Value: value}
}

// AZ selects the availability zone at index from the stack's region.
func AZ(index int) Select {
	return Select{Index: index, List: GetAZs{}}
}
