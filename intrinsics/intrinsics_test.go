package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTo_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RefTo("Vpc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "Vpc"}`, string(data))
}

func TestAttOf_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(AttOf("WebServerRole", "Arn"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["WebServerRole", "Arn"]}`, string(data))
}

func TestAZ_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(AZ(2))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Fn::Select"`)
	assert.Contains(t, string(data), `"Fn::GetAZs"`)
}

func TestNameTag(t *testing.T) {
	tag := NameTag("CdkEc2SetupStack/cdk_ec2_vpc/CustomRouteTable")
	assert.Equal(t, "Name", tag.Key)
	assert.Equal(t, "CdkEc2SetupStack/cdk_ec2_vpc/CustomRouteTable", tag.Value)
}

func TestBase64_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Base64{Value: "#!/bin/bash"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Base64": "#!/bin/bash"}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	data, err := json.Marshal(RefTo(Region))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "AWS::Region"}`, string(data))

	assert.True(t, IsPseudo(StackName))
	assert.True(t, IsPseudo(AccountID))
	assert.False(t, IsPseudo("Vpc"))
}

func TestRegionalARN(t *testing.T) {
	data, err := json.Marshal(RegionalARN("ssm", "parameter/"+Var("AgentConfig")))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"Fn::Sub": "arn:${AWS::Partition}:ssm:${AWS::Region}:${AWS::AccountId}:parameter/${AgentConfig}"}`,
		string(data))
}

func TestStackScoped(t *testing.T) {
	data, err := json.Marshal(StackScoped("VpcId"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "${AWS::StackName}-VpcId"}`, string(data))
}

func TestServicePrincipal_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(ServicePrincipal{"ec2.amazonaws.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": "ec2.amazonaws.com"}`, string(data))

	data, err = json.Marshal(ServicePrincipal{"ec2.amazonaws.com", "ssm.amazonaws.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": ["ec2.amazonaws.com", "ssm.amazonaws.com"]}`, string(data))
}

func TestNewPolicyDocument(t *testing.T) {
	doc := NewPolicyDocument(
		AssumeRoleFor("ec2.amazonaws.com"),
		Allow("*", "ssm:GetParameter", "ssm:GetParameters"),
	)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Effect": "Allow",
				"Principal": {"Service": "ec2.amazonaws.com"},
				"Action": "sts:AssumeRole"
			},
			{
				"Effect": "Allow",
				"Action": ["ssm:GetParameter", "ssm:GetParameters"],
				"Resource": "*"
			}
		]
	}`, string(data))
}
