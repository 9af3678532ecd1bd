package stack

import (
	"strconv"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/internal/network"
	"github.com/lex00/wetwire-tiernet-go/internal/serialize"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
	"github.com/lex00/wetwire-tiernet-go/resources/autoscaling"
	"github.com/lex00/wetwire-tiernet-go/resources/ec2"
	lb "github.com/lex00/wetwire-tiernet-go/resources/elasticloadbalancingv2"
	"github.com/lex00/wetwire-tiernet-go/resources/iam"
	"github.com/lex00/wetwire-tiernet-go/resources/ssm"
)

// Logical IDs of the compute declarations.
const (
	LoadBalancerID = "PublicWebLoadBalancer"
	ListenerID     = LoadBalancerID + "Listener"
	TargetGroupID  = LoadBalancerID + "Targets"
)

// AgentConfigDescription describes the SSM parameter holding the agent configuration.
const AgentConfigDescription = "Trimmed configuration to report memory usage."

var parameterReadActions = []string{
	"ssm:DescribeParameters",
	"ssm:GetParameters",
	"ssm:GetParameter",
	"ssm:GetParameterHistory",
}

// ParameterID is the logical ID of the agent configuration parameter.
func ParameterID(name string) string { return serialize.LogicalID(name) }

// RoleID is the logical ID of the instance role.
func RoleID(name string) string { return serialize.LogicalID(name) }

// GroupID is the logical ID of the auto scaling group.
func GroupID(name string) string { return serialize.LogicalID(name, "Group") }

func (r *renderer) compute() {
	c := r.opts.Compute
	paramID := ParameterID(r.opts.ParameterName)
	roleID := RoleID(c.RoleName)
	profileID := roleID + "InstanceProfile"
	templateID := serialize.LogicalID(c.GroupName, "LaunchTemplate")
	vpc := intrinsics.RefTo(r.plan.Topology.VPCID)

	r.declare(paramID, &ssm.Parameter{
		Name:        r.opts.ParameterName,
		Description: AgentConfigDescription,
		Type:        "String",
		Value:       r.payloads.AgentConfig,
		Tier:        "Standard",
	})

	r.declare(roleID, &iam.Role{
		RoleName:                 c.RoleName,
		Description:              "Instance role for the web server fleet",
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.AssumeRoleFor("ec2.amazonaws.com")),
		ManagedPolicyArns: intrinsics.Any(
			iam.ManagedPolicyArn("CloudWatchAgentServerPolicy"),
			iam.ManagedPolicyArn("AmazonSSMManagedInstanceCore"),
		),
	})
	r.declare(roleID+"DefaultPolicy", &iam.Policy{
		PolicyName: roleID + "DefaultPolicy",
		PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.Allow(
			intrinsics.RegionalARN("ssm", "parameter/"+intrinsics.Var(paramID)),
			parameterReadActions...,
		)),
		Roles: intrinsics.Any(intrinsics.RefTo(roleID)),
	})
	r.declare(profileID, &iam.InstanceProfile{
		Roles: intrinsics.Any(intrinsics.RefTo(roleID)),
	})

	r.stack.Parameters[ImageParameterName] = tiernet.Parameter{
		Type:        "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>",
		Description: "Amazon Linux 2 AMI for the web servers",
		Default:     c.ImageParameter,
	}

	webSG := r.groupIDs[r.webGroupName()]
	// Instances read the agent configuration at boot.
	r.declare(templateID, &ec2.LaunchTemplate{
		LaunchTemplateName: c.GroupName,
		LaunchTemplateData: ec2.LaunchTemplate_LaunchTemplateData{
			ImageId:            intrinsics.RefTo(ImageParameterName),
			InstanceType:       c.InstanceType,
			KeyName:            c.KeyName,
			IamInstanceProfile: &ec2.LaunchTemplate_IamInstanceProfile{Arn: intrinsics.AttOf(profileID, "Arn")},
			NetworkInterfaces: []ec2.LaunchTemplate_NetworkInterface{{
				DeviceIndex:              0,
				AssociatePublicIpAddress: true,
				Groups:                   intrinsics.Any(intrinsics.AttOf(webSG, "GroupId")),
			}},
			UserData: intrinsics.Base64{Value: r.payloads.UserDataScript()},
			TagSpecifications: []ec2.LaunchTemplate_TagSpecification{{
				ResourceType: "instance",
				Tags:         []intrinsics.Tag{intrinsics.NameTag(r.plan.Topology.Spec.StackName + "/" + c.GroupName)},
			}},
		},
	}, paramID, roleID+"DefaultPolicy")

	r.declare(TargetGroupID, &lb.TargetGroup{
		Port:                       80,
		Protocol:                   "HTTP",
		TargetType:                 "instance",
		VpcId:                      vpc,
		HealthCheckPath:            c.HealthCheckPath,
		HealthCheckIntervalSeconds: c.HealthCheckInterval,
	})

	lbSG := r.groupIDs[r.lbGroupName()]
	r.declare(LoadBalancerID, &lb.LoadBalancer{
		Type:           "application",
		Scheme:         "internet-facing",
		Subnets:        subnetRefs(r.lbTier),
		SecurityGroups: intrinsics.Any(intrinsics.AttOf(lbSG, "GroupId")),
	}, r.plan.Topology.RouteTable.DefaultRoute.ID)
	r.declare(ListenerID, &lb.Listener{
		LoadBalancerArn: intrinsics.RefTo(LoadBalancerID),
		Port:            80,
		Protocol:        "HTTP",
		DefaultActions: []lb.Listener_Action{{
			Type:           "forward",
			TargetGroupArn: intrinsics.RefTo(TargetGroupID),
		}},
	})

	// Web servers bootstrap over the internet route.
	r.stack.Declarations = append(r.stack.Declarations, tiernet.Declaration{
		Name: GroupID(c.GroupName),
		Resource: &autoscaling.AutoScalingGroup{
			AutoScalingGroupName: c.GroupName,
			MinSize:              strconv.Itoa(c.MinCapacity),
			MaxSize:              strconv.Itoa(c.MaxCapacity),
			DesiredCapacity:      strconv.Itoa(c.DesiredCapacity),
			LaunchTemplate: &autoscaling.AutoScalingGroup_LaunchTemplateSpecification{
				LaunchTemplateId: intrinsics.RefTo(templateID),
				Version:          intrinsics.AttOf(templateID, "LatestVersionNumber"),
			},
			VPCZoneIdentifier: subnetRefs(r.webTier),
			TargetGroupARNs:   intrinsics.Any(intrinsics.RefTo(TargetGroupID)),
		},
		DependsOn:    []string{r.plan.Topology.RouteTable.DefaultRoute.ID, ListenerID},
		UpdatePolicy: autoscaling.RollingUpdate(c.MinInService, c.MaxBatchSize),
	})
}

func (r *renderer) lbGroupName() string  { return r.groupName(r.lbTier) }
func (r *renderer) webGroupName() string { return r.groupName(r.webTier) }

func (r *renderer) groupName(tier *network.SubnetTier) string {
	for _, g := range r.plan.SecurityGroups {
		if g.Tier == tier.Spec.Name {
			return g.Name
		}
	}
	return ""
}

func subnetRefs(tier *network.SubnetTier) []any {
	refs := make([]any, len(tier.Subnets))
	for i, s := range tier.Subnets {
		refs[i] = intrinsics.RefTo(s.ID)
	}
	return refs
}
