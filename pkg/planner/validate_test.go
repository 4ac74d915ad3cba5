package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

func alloc(account, role, subnet string) model.Allocation {
	return model.Allocation{
		AccountName:      account,
		VpcName:          account + "-vpc",
		CloudProvider:    "aws",
		RegionName:       "us-east-1",
		AvailabilityZone: "us-east-1a",
		SubnetRole:       role,
		SubnetCidr:       cidr.MustParse(subnet),
	}
}

func TestValidateNoOverlappingCidrsClean(t *testing.T) {
	result := ValidateNoOverlappingCidrs([]model.Allocation{
		alloc("prod", "Public", "10.0.0.0/26"),
		alloc("prod", "Private", "10.0.0.64/27"),
		alloc("dev", "Public", "10.1.0.0/26"),
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Overlaps)
	assert.NoError(t, result.Err())
}

func TestValidateNoOverlappingCidrsDetectsPair(t *testing.T) {
	result := ValidateNoOverlappingCidrs([]model.Allocation{
		alloc("prod", "Public", "10.0.0.0/26"),
		alloc("dev", "Public", "10.0.0.32/27"),
		alloc("dev", "Private", "10.2.0.0/27"),
	})

	require.False(t, result.Valid)
	require.Len(t, result.Overlaps, 1)
	assert.Equal(t, "10.0.0.0/26", result.Overlaps[0].Cidr1.String())
	assert.Equal(t, "10.0.0.32/27", result.Overlaps[0].Cidr2.String())
	assert.Equal(t, "prod", result.Overlaps[0].Alloc1.AccountName)
	assert.Equal(t, "dev", result.Overlaps[0].Alloc2.AccountName)

	err := result.Err()
	require.Error(t, err)
	assert.True(t, cidr.IsKind(err, cidr.KindCidrOverlap))
}

func TestValidateNoOverlappingCidrsEmpty(t *testing.T) {
	assert.True(t, ValidateNoOverlappingCidrs(nil).Valid)
}

func TestAnalyze(t *testing.T) {
	cfg := mustConfig(t, `baseCidr: 10.0.0.0/8
accounts:
  - name: prod
    clouds:
      aws:
        regions: [us-east-1, us-west-2]
      azure:
        regions: [eastus]
  - name: dev
    clouds:
      aws:
        regions: [us-east-1]
subnetTypes:
  Public: 26
  Private: 27
`)

	analysis := Analyze(cfg)
	assert.Equal(t, 2, analysis.Accounts)
	assert.Equal(t, 4, analysis.Regions)
	assert.Equal(t, 2, analysis.SubnetTypes)
	assert.Equal(t, 4*3*2, analysis.Subnets)

	require.Len(t, analysis.Providers, 2)
	assert.Equal(t, "aws", analysis.Providers[0].Provider)
	assert.Equal(t, 3, analysis.Providers[0].Regions)
	assert.Equal(t, 2, analysis.Providers[0].Accounts)
	assert.Equal(t, "azure", analysis.Providers[1].Provider)
	assert.Equal(t, 1, analysis.Providers[1].Regions)
}
