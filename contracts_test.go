package tiernet

import (
	"encoding/json"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "security group id",
			ref:      AttrRef{Resource: "CdkEc2WebPrivSg", Attribute: "GroupId"},
			expected: `{"Fn::GetAtt":["CdkEc2WebPrivSg","GroupId"]}`,
		},
		{
			name:     "load balancer dns",
			ref:      AttrRef{Resource: "PublicWebLoadBalancer", Attribute: "DNSName"},
			expected: `{"Fn::GetAtt":["PublicWebLoadBalancer","DNSName"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	assert.True(t, AttrRef{}.IsZero())
	assert.False(t, AttrRef{Resource: "Vpc"}.IsZero())
	assert.False(t, AttrRef{Attribute: "VpcId"}.IsZero())
}

func TestTemplate_JSON(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"Vpc": {
				Type:       "AWS::EC2::VPC",
				Properties: map[string]any{"CidrBlock": "10.255.248.0/21"},
			},
		},
		Outputs: map[string]Output{
			"VpcId": {
				Value:  map[string]any{"Ref": "Vpc"},
				Export: &OutputName{Name: "cdk-ec2-VpcId"},
			},
		},
	}

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": {
			"Vpc": {"Type": "AWS::EC2::VPC", "Properties": {"CidrBlock": "10.255.248.0/21"}}
		},
		"Outputs": {
			"VpcId": {"Value": {"Ref": "Vpc"}, "Export": {"Name": "cdk-ec2-VpcId"}}
		}
	}`, string(data))
}

func TestTemplate_YAMLOmitsEmpty(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"InternetGateway": {Type: "AWS::EC2::InternetGateway"},
		},
	}
	data, err := yaml.Marshal(tmpl)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Parameters")
	assert.NotContains(t, string(data), "Properties")
	assert.Contains(t, string(data), "Type: AWS::EC2::InternetGateway")
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("cidr", "10.0.0.0/33", "mask out of range")
	assert.Equal(t, "invalid cidr 10.0.0.0/33: mask out of range", err.Error())
	assert.ErrorIs(t, err, ErrConfig)
	assert.NotErrorIs(t, err, ErrRuleConflict)

	wrapped := &ConfigError{Field: "user data", Value: "boot.sh", Err: fs.ErrNotExist}
	assert.ErrorIs(t, wrapped, ErrConfig)
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)
	assert.Equal(t, "invalid user data boot.sh: file does not exist", wrapped.Error())

	noValue := &ConfigError{Field: "tiers", Reason: "at least one tier is required"}
	assert.Equal(t, "invalid tiers: at least one tier is required", noValue.Error())
}

func TestRuleConflictError(t *testing.T) {
	tests := []struct {
		name string
		err  *RuleConflictError
		want string
	}{
		{
			name: "pair",
			err:  &RuleConflictError{ACL: "cdk_ec2_web_priv", Rule: "a", Other: "b", Number: 100, Reason: "same number"},
			want: "cdk_ec2_web_priv: rule a conflicts with b at number 100: same number",
		},
		{
			name: "numbered",
			err:  &RuleConflictError{ACL: "cdk_ec2_web_priv", Rule: "a", Number: 32767, Reason: "out of range"},
			want: "cdk_ec2_web_priv: rule a at number 32767: out of range",
		},
		{
			name: "bare",
			err:  &RuleConflictError{ACL: "cdk_ec2_elb_pub", Rule: "a", Reason: "no return rule"},
			want: "cdk_ec2_elb_pub: rule a: no return rule",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrRuleConflict)
		})
	}
}

func TestProvisioningError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := &ProvisioningError{Op: "cfn-lint", Err: cause}
	assert.Equal(t, "cfn-lint: exit status 2", err.Error())
	assert.ErrorIs(t, err, ErrProvisioning)
	assert.ErrorIs(t, err, cause)

	var pe *ProvisioningError
	require.ErrorAs(t, error(err), &pe)
	assert.Equal(t, "cfn-lint", pe.Op)
}
