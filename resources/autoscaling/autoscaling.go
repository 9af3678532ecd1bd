// Package autoscaling provides typed AWS::AutoScaling resources.
package autoscaling

// AutoScalingGroup is AWS::AutoScaling::AutoScalingGroup.
type AutoScalingGroup struct {
	AutoScalingGroupName string                                        `json:"AutoScalingGroupName,omitempty"`
	MinSize              string                                        `json:"MinSize"`
	MaxSize              string                                        `json:"MaxSize"`
	DesiredCapacity      string                                        `json:"DesiredCapacity,omitempty"`
	LaunchTemplate       *AutoScalingGroup_LaunchTemplateSpecification `json:"LaunchTemplate,omitempty"`
	VPCZoneIdentifier    []any                                         `json:"VPCZoneIdentifier,omitempty"`
	TargetGroupARNs      []any                                         `json:"TargetGroupARNs,omitempty"`
}

func (AutoScalingGroup) ResourceType() string { return "AWS::AutoScaling::AutoScalingGroup" }

// AutoScalingGroup_LaunchTemplateSpecification pins the group to a launch template version.
type AutoScalingGroup_LaunchTemplateSpecification struct {
	LaunchTemplateId   any `json:"LaunchTemplateId,omitempty"`
	LaunchTemplateName any `json:"LaunchTemplateName,omitempty"`
	Version            any `json:"Version"`
}

// RollingUpdate builds the UpdatePolicy attribute for a rolling replacement.
func RollingUpdate(minInService, maxBatchSize int) map[string]any {
	return map[string]any{
		"AutoScalingRollingUpdate": map[string]any{
			"MinInstancesInService": minInService,
			"MaxBatchSize":          maxBatchSize,
		},
		"AutoScalingScheduledAction": map[string]any{
			"IgnoreUnmodifiedGroupSizeProperties": true,
		},
	}
}
