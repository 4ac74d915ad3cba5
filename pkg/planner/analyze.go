// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package planner

import (
	"github.com/wingedpig/cidrplan/pkg/cloudzones"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// ProviderAnalysis is the per-provider slice of an Analysis.
type ProviderAnalysis struct {
	Provider string
	Accounts int
	Regions  int
	Subnets  int
}

// Analysis summarizes how many blocks a config will produce without
// running the allocation.
type Analysis struct {
	Accounts    int
	Regions     int
	SubnetTypes int
	// Subnets is regions x zones-per-region x subnet types.
	Subnets   int
	Providers []ProviderAnalysis
}

// Analyze counts the regions and subnets a config will plan, overall and
// per provider. Provider rows follow the config's provider order.
func Analyze(cfg *model.Config) *Analysis {
	analysis := &Analysis{
		Accounts:    len(cfg.Accounts),
		SubnetTypes: len(cfg.SubnetTypes),
	}

	order := append([]string(nil), cfg.CloudProviders...)
	perProvider := make(map[string]*ProviderAnalysis)
	for _, provider := range order {
		perProvider[provider] = &ProviderAnalysis{Provider: provider}
	}

	for _, account := range cfg.Accounts {
		for _, cloud := range account.Clouds {
			regions := len(cloud.Regions)
			subnets := regions * cloudzones.DefaultZoneCount * len(cfg.SubnetTypes)
			analysis.Regions += regions
			analysis.Subnets += subnets
			pa := perProvider[cloud.Provider]
			if pa == nil {
				// Provider absent from the declared list; still count it.
				pa = &ProviderAnalysis{Provider: cloud.Provider}
				perProvider[cloud.Provider] = pa
				order = append(order, cloud.Provider)
			}
			pa.Accounts++
			pa.Regions += regions
			pa.Subnets += subnets
		}
	}

	for _, provider := range order {
		analysis.Providers = append(analysis.Providers, *perProvider[provider])
	}
	return analysis
}
