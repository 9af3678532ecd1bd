package intrinsics

import "strings"

// Pseudo parameter names. Ref them with RefTo or embed them in a Sub
// string with Var.
const (
	AccountID = "AWS::AccountId"
	Partition = "AWS::Partition"
	Region    = "AWS::Region"
	StackName = "AWS::StackName"
)

// IsPseudo reports whether name is a pseudo parameter rather than a logical ID.
func IsPseudo(name string) bool {
	return strings.HasPrefix(name, "AWS::")
}

// Var returns the Fn::Sub placeholder for name.
func Var(name string) string {
	return "${" + name + "}"
}

// RegionalARN is the ARN of resource in service, scoped to the stack's
// partition, region and account.
func RegionalARN(service, resource string) Sub {
	return Sub{String: "arn:" + Var(Partition) + ":" + service + ":" + Var(Region) + ":" + Var(AccountID) + ":" + resource}
}

// StackScoped prefixes suffix with the stack name, as export names must be
// unique per region.
func StackScoped(suffix string) Sub {
	return Sub{String: Var(StackName) + "-" + suffix}
}
