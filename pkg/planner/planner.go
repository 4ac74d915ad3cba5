// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package planner

import (
	"log"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/cloudzones"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// Planner walks a normalized config and carves a CIDR for every
// (account, cloud, region, availability zone, subnet role) tuple. The walk
// is a pure function of the config: all loops follow declaration order and
// every hierarchy level owns its own contiguous allocator, so two runs over
// the same config produce identical output.
type Planner struct {
	cfg *model.Config
}

// New creates a planner for a normalized config that passed validation.
func New(cfg *model.Config) *Planner {
	return &Planner{cfg: cfg}
}

// Generate runs the hierarchical allocation and returns the subnet records
// in emission order.
func (p *Planner) Generate() ([]model.Allocation, error) {
	root := cidr.NewContiguousAllocator(p.cfg.BaseCidr)
	tracker := cidr.NewTracker()
	var allocations []model.Allocation

	for _, account := range p.cfg.Accounts {
		accountCidr, overrideInUse, err := p.resolveAccountCidr(root, account)
		if err != nil {
			return nil, err
		}
		accountAlloc := cidr.NewContiguousAllocator(accountCidr)

		for _, cloud := range account.Clouds {
			// Under the override policy the whole account shares one
			// block; without it, clouds still share the account block
			// carved from the root.
			vpcCidr := accountCidr
			if !overrideInUse && cloud.BaseCidr != nil {
				vpcCidr = *cloud.BaseCidr
			}

			for _, region := range cloud.Regions {
				regionCidr, err := accountAlloc.Allocate(p.cfg.PrefixLengths.Region)
				if err != nil {
					return nil, withPath(err, account.Name, cloud.Provider, region, "", "")
				}
				regionAlloc := cidr.NewContiguousAllocator(regionCidr)

				for _, azName := range cloudzones.Names(cloud.Provider, region, cloudzones.DefaultZoneCount) {
					azCidr, err := regionAlloc.Allocate(p.cfg.PrefixLengths.AZ)
					if err != nil {
						return nil, withPath(err, account.Name, cloud.Provider, region, azName, "")
					}
					azAlloc := cidr.NewContiguousAllocator(azCidr)

					for _, role := range p.cfg.SubnetTypes {
						subnetCidr, err := azAlloc.Allocate(role.PrefixLength)
						if err != nil {
							return nil, withPath(err, account.Name, cloud.Provider, region, azName, role.Name)
						}
						allocations = append(allocations, model.Allocation{
							AccountName:      account.Name,
							VpcName:          account.Name + "-vpc",
							CloudProvider:    cloud.Provider,
							RegionName:       region,
							AvailabilityZone: azName,
							RegionCidr:       regionCidr,
							VpcCidr:          vpcCidr,
							AzCidr:           azCidr,
							SubnetCidr:       subnetCidr,
							SubnetRole:       role.Name,
							UsableIPs:        subnetCidr.UsableIPs(),
						})
						tracker.Add(subnetCidr)
					}
				}
			}
		}
	}

	return allocations, nil
}

// resolveAccountCidr picks the block all clouds of the account will carve
// regions from. When any cloud declares a baseCidr, the first one in
// declaration order is used for the whole account and no root space is
// consumed. Otherwise one account block comes from the root allocator.
func (p *Planner) resolveAccountCidr(root *cidr.ContiguousAllocator, account model.Account) (cidr.Block, bool, error) {
	var override *cidr.Block
	seen := make(map[cidr.Block]bool)
	for _, cloud := range account.Clouds {
		if cloud.BaseCidr == nil {
			continue
		}
		if override == nil {
			override = cloud.BaseCidr
		}
		seen[*cloud.BaseCidr] = true
	}
	distinct := len(seen)
	if override != nil {
		if distinct > 1 {
			log.Printf("WARN: account %s declares %d distinct cloud baseCidr overrides; using the first (%s) for every cloud",
				account.Name, distinct, override)
		}
		return *override, true, nil
	}

	block, err := root.Allocate(p.cfg.PrefixLengths.Account)
	if err != nil {
		return cidr.Block{}, false, withPath(err, account.Name, "", "", "", "")
	}
	return block, false, nil
}

// withPath attaches the hierarchy position to an allocation failure.
func withPath(err error, account, provider, region, az, role string) error {
	e := cidr.AsError(err)
	if e == nil {
		return err
	}
	e.With("account", account)
	if provider != "" {
		e.With("provider", provider)
	}
	if region != "" {
		e.With("region", region)
	}
	if az != "" {
		e.With("az", az)
	}
	if role != "" {
		e.With("role", role)
	}
	return e
}
