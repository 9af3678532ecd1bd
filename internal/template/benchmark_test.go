package template

import (
	"fmt"
	"testing"

	tiernet "github.com/lex00/wetwire-tiernet-go"
	"github.com/lex00/wetwire-tiernet-go/intrinsics"
	"github.com/lex00/wetwire-tiernet-go/resources/ec2"
)

// BenchmarkBuild benchmarks building templates with varying subnet counts.
func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{10, 50, 200} {
		b.Run(fmt.Sprintf("subnets_%d", size), func(b *testing.B) {
			decls := generateSubnets(size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := NewBuilder(decls).Build(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkToJSON benchmarks JSON serialization with varying subnet counts.
func BenchmarkToJSON(b *testing.B) {
	for _, size := range []int{10, 50, 200} {
		b.Run(fmt.Sprintf("subnets_%d", size), func(b *testing.B) {
			tmpl, err := NewBuilder(generateSubnets(size)).Build()
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToJSON(tmpl); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func generateSubnets(count int) []tiernet.Declaration {
	decls := []tiernet.Declaration{
		{Name: "Vpc", Resource: &ec2.VPC{CidrBlock: "10.0.0.0/8"}},
		{Name: "RouteTable", Resource: &ec2.RouteTable{VpcId: intrinsics.RefTo("Vpc")}},
	}
	for i := 0; i < count; i++ {
		subnet := fmt.Sprintf("Subnet%d", i)
		decls = append(decls,
			tiernet.Declaration{Name: subnet, Resource: &ec2.Subnet{
				VpcId:     intrinsics.RefTo("Vpc"),
				CidrBlock: fmt.Sprintf("10.%d.%d.0/24", i/256, i%256),
			}},
			tiernet.Declaration{Name: subnet + "Association", Resource: &ec2.SubnetRouteTableAssociation{
				SubnetId:     intrinsics.RefTo(subnet),
				RouteTableId: intrinsics.RefTo("RouteTable"),
			}},
		)
	}
	return decls
}
