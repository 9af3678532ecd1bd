package ec2

import (
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
)

// LaunchTemplate is AWS::EC2::LaunchTemplate.
type LaunchTemplate struct {
	LaunchTemplateName string                            `json:"LaunchTemplateName,omitempty"`
	LaunchTemplateData LaunchTemplate_LaunchTemplateData `json:"LaunchTemplateData"`
}

func (LaunchTemplate) ResourceType() string { return "AWS::EC2::LaunchTemplate" }

// LaunchTemplate_LaunchTemplateData holds the instance settings of a launch template.
type LaunchTemplate_LaunchTemplateData struct {
	ImageId            any                                `json:"ImageId,omitempty"`
	InstanceType       string                             `json:"InstanceType,omitempty"`
	KeyName            string                             `json:"KeyName,omitempty"`
	IamInstanceProfile *LaunchTemplate_IamInstanceProfile `json:"IamInstanceProfile,omitempty"`
	NetworkInterfaces  []LaunchTemplate_NetworkInterface  `json:"NetworkInterfaces,omitempty"`
	SecurityGroupIds   []any                              `json:"SecurityGroupIds,omitempty"`
	UserData           any                                `json:"UserData,omitempty"`
	TagSpecifications  []LaunchTemplate_TagSpecification  `json:"TagSpecifications,omitempty"`
}

// LaunchTemplate_IamInstanceProfile references an instance profile.
type LaunchTemplate_IamInstanceProfile struct {
	Arn any `json:"Arn,omitempty"`
}

// LaunchTemplate_NetworkInterface is the primary network interface of launched instances.
type LaunchTemplate_NetworkInterface struct {
	DeviceIndex              int   `json:"DeviceIndex"`
	AssociatePublicIpAddress bool  `json:"AssociatePublicIpAddress,omitempty"`
	Groups                   []any `json:"Groups,omitempty"`
}

// LaunchTemplate_TagSpecification tags resources created from the template.
type LaunchTemplate_TagSpecification struct {
	ResourceType string           `json:"ResourceType"`
	Tags         []intrinsics.Tag `json:"Tags,omitempty"`
}
