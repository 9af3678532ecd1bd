// Command tiernet plans a two-tier AWS network and renders it as CloudFormation.
//
// Usage:
//
//	tiernet plan                  Show subnets, ACL rules and security groups
//	tiernet build -o stack.json   Generate the CloudFormation template
//	tiernet validate              Run structural checks and cfn-lint
//	tiernet version               Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "tiernet",
		Short: "Plan two-tier AWS networks as CloudFormation",
		Long: `tiernet plans a VPC with public load balancer subnets and isolated web
server subnets, then renders it with network ACLs, security groups and an
auto scaling web fleet as a CloudFormation template.

Describe the network in a YAML or HCL file:

    network:
      cidr: 10.255.248.0/21
      max_azs: 3
    tiers:
      - {name: cdk_ec2_elb_pub, cidr_mask: 28, exposure: public}
      - {name: cdk_ec2_web_priv, cidr_mask: 26, exposure: isolated}

Then generate the template:

    tiernet build -c tiernet.yaml -o stack.json

With no config file the reference stack above is planned.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .hcl)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json (default from config)")
	flags.BoolVar(&opts.directAccess, "direct-access", false, "Enable the optional direct internet flows into isolated tiers")

	rootCmd.AddCommand(
		newPlanCmd(opts),
		newBuildCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newValidateCmd(opts),
		newDiffCmd(opts),
		newOptimizeCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tiernet %s\n", getVersion())
		},
	}
}
