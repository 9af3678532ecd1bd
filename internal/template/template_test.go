package template

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
	"github.com/lex00/wetwire-tiernet-go/resources/ec2"
	"github.com/lex00/wetwire-tiernet-go/resources/iam"
)

func vpcDecls() []tiernet.Declaration {
	return []tiernet.Declaration{
		{Name: "Vpc", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/16"}},
		{Name: "InternetGateway", Resource: &ec2.InternetGateway{}},
		{Name: "VpcGatewayAttachment", Resource: &ec2.VPCGatewayAttachment{
			VpcId:             intrinsics.RefTo("Vpc"),
			InternetGatewayId: intrinsics.RefTo("InternetGateway"),
		}},
		{Name: "Subnet1", Resource: &ec2.Subnet{
			VpcId:            intrinsics.RefTo("Vpc"),
			CidrBlock:        "10.0.0.0/24",
			AvailabilityZone: intrinsics.AZ(0),
		}},
		{Name: "RouteTable", Resource: &ec2.RouteTable{VpcId: intrinsics.RefTo("Vpc")}, DependsOn: []string{"Subnet1"}},
		{Name: "Route", Resource: &ec2.Route{
			RouteTableId:         intrinsics.RefTo("RouteTable"),
			DestinationCidrBlock: "0.0.0.0/0",
			GatewayId:            intrinsics.RefTo("InternetGateway"),
		}, DependsOn: []string{"VpcGatewayAttachment"}},
	}
}

func TestBuilder_Build(t *testing.T) {
	template, err := NewBuilder(vpcDecls()).WithDescription("test stack").Build()
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, template.AWSTemplateFormatVersion)
	assert.Equal(t, "test stack", template.Description)
	assert.Len(t, template.Resources, 6)

	vpc := template.Resources["Vpc"]
	assert.Equal(t, "AWS::EC2::VPC", vpc.Type)
	assert.Equal(t, "10.0.0.0/16", vpc.Properties["CidrBlock"])

	route := template.Resources["Route"]
	assert.Equal(t, []string{"VpcGatewayAttachment"}, route.DependsOn)
	assert.Equal(t, map[string]any{"Ref": "InternetGateway"}, route.Properties["GatewayId"])
}

func TestBuilder_Order(t *testing.T) {
	order, err := NewBuilder(vpcDecls()).Order()
	require.NoError(t, err)

	before := func(a, b string) {
		t.Helper()
		assert.Less(t, indexOf(order, a), indexOf(order, b), "%s should precede %s", a, b)
	}
	before("Vpc", "Subnet1")
	before("Subnet1", "RouteTable")
	before("VpcGatewayAttachment", "Route")
	before("InternetGateway", "VpcGatewayAttachment")
	// Ties break by name.
	assert.Equal(t, []string{"InternetGateway", "Vpc"}, order[:2])
}

func TestBuilder_Dependencies(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"Vpc", nil},
		{"VpcGatewayAttachment", []string{"InternetGateway", "Vpc"}},
		{"Subnet1", []string{"Vpc"}},
		{"RouteTable", []string{"Subnet1", "Vpc"}},
		{"Route", []string{"InternetGateway", "RouteTable", "VpcGatewayAttachment"}},
	}
	b := NewBuilder(vpcDecls())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, err := b.Dependencies(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, deps)
		})
	}
}

func TestBuilder_SubAndGetAttRefs(t *testing.T) {
	decls := []tiernet.Declaration{
		{Name: "Param", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/16"}},
		{Name: "Role", Resource: &iam.Role{
			AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(),
			ManagedPolicyArns:        intrinsics.Any(iam.ManagedPolicyArn("ReadOnlyAccess")),
		}},
		{Name: "Policy", Resource: &iam.Policy{
			PolicyName: "p",
			PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect:   "Allow",
				Action:   "ssm:GetParameter",
				Resource: intrinsics.Sub{String: "arn:${AWS::Partition}:ssm:${AWS::Region}::parameter/${Param}"},
			}),
			Roles: intrinsics.Any(intrinsics.AttOf("Role", "RoleId")),
		}},
	}
	b := NewBuilder(decls)
	deps, err := b.Dependencies("Policy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Param", "Role"}, deps)

	// Pseudo parameters inside Sub are not resources.
	deps, err = b.Dependencies("Role")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		decls []tiernet.Declaration
		want  string
	}{
		{
			name: "unknown ref",
			decls: []tiernet.Declaration{
				{Name: "Subnet", Resource: &ec2.Subnet{VpcId: intrinsics.RefTo("Missing"), CidrBlock: "10.0.0.0/24"}},
			},
			want: "Subnet: reference to unknown resource Missing",
		},
		{
			name: "unknown depends on",
			decls: []tiernet.Declaration{
				{Name: "Vpc", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/16"}, DependsOn: []string{"Nope"}},
			},
			want: "Vpc: DependsOn unknown resource Nope",
		},
		{
			name: "duplicate",
			decls: []tiernet.Declaration{
				{Name: "Vpc", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/16"}},
				{Name: "Vpc", Resource: &ec2.VPC{CidrBlock: "10.1.0.0/16"}},
			},
			want: "duplicate logical ID Vpc",
		},
		{
			name:  "no resource",
			decls: []tiernet.Declaration{{Name: "Vpc"}},
			want:  `declaration "Vpc" has no name or resource`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.decls).Build()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestBuilder_DetectCycle(t *testing.T) {
	decls := []tiernet.Declaration{
		{Name: "A", Resource: &ec2.RouteTable{VpcId: intrinsics.RefTo("B")}},
		{Name: "B", Resource: &ec2.RouteTable{VpcId: intrinsics.RefTo("A")}},
		{Name: "C", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/16"}},
	}
	_, err := NewBuilder(decls).Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestBuilder_ParametersAndOutputs(t *testing.T) {
	decls := append(vpcDecls(), tiernet.Declaration{
		Name: "Template",
		Resource: &ec2.LaunchTemplate{LaunchTemplateData: ec2.LaunchTemplate_LaunchTemplateData{
			ImageId: intrinsics.RefTo("ImageId"),
		}},
	})
	template, err := NewBuilder(decls).
		WithParameters(map[string]tiernet.Parameter{
			"ImageId": {Type: "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>", Default: "/aws/ami"},
		}).
		WithOutputs(map[string]tiernet.Output{
			"VpcId": {
				Value:  intrinsics.RefTo("Vpc"),
				Export: &tiernet.OutputName{Name: intrinsics.Sub{String: "${AWS::StackName}-VpcId"}},
			},
		}).
		Build()
	require.NoError(t, err)

	assert.Contains(t, template.Parameters, "ImageId")
	out := template.Outputs["VpcId"]
	assert.Equal(t, map[string]any{"Ref": "Vpc"}, out.Value)
	assert.Equal(t, map[string]any{"Fn::Sub": "${AWS::StackName}-VpcId"}, out.Export.Name)

	_, err = NewBuilder(vpcDecls()).
		WithOutputs(map[string]tiernet.Output{"X": {Value: intrinsics.AttOf("Gone", "Arn")}}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output X: reference to unknown resource Gone")
}

func TestToJSON(t *testing.T) {
	template, err := NewBuilder(vpcDecls()).Build()
	require.NoError(t, err)

	data, err := ToJSON(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, FormatVersion, parsed["AWSTemplateFormatVersion"])
	resources := parsed["Resources"].(map[string]any)
	assert.Contains(t, resources, "Route")
}

func TestToYAML(t *testing.T) {
	template, err := NewBuilder(vpcDecls()).Build()
	require.NoError(t, err)

	data, err := ToYAML(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	resources := parsed["Resources"].(map[string]any)
	vpc := resources["Vpc"].(map[string]any)
	assert.Equal(t, "AWS::EC2::VPC", vpc["Type"])
}

func indexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}
