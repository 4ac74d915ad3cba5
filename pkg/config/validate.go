// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package config

import (
	"fmt"
	"log"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// overrideRef is one cloud-level baseCidr override with its config path.
type overrideRef struct {
	path  string
	block cidr.Block
}

// Validate performs the cross-cutting checks on a normalized config:
// every pair of cloud-level baseCidr overrides must be mutually disjoint.
// The top-level baseCidr is deliberately not checked against overrides;
// overrides exist to escape the root space.
func Validate(cfg *model.Config) error {
	var overrides []overrideRef
	for i, account := range cfg.Accounts {
		for _, cloud := range account.Clouds {
			if cloud.BaseCidr == nil {
				continue
			}
			overrides = append(overrides, overrideRef{
				path:  fmt.Sprintf("accounts[%d](%s).clouds.%s.baseCidr", i, account.Name, cloud.Provider),
				block: *cloud.BaseCidr,
			})
		}
	}

	for i := 0; i < len(overrides); i++ {
		for j := i + 1; j < len(overrides); j++ {
			if overrides[i].block.Overlaps(overrides[j].block) {
				return cidr.NewError(cidr.KindCidrOverlap, "cloud baseCidr overrides overlap").
					With("cidr1", overrides[i].block.String()).
					With("cidr2", overrides[j].block.String()).
					With("path1", overrides[i].path).
					With("path2", overrides[j].path)
			}
		}
	}

	warnPrefixSpread(cfg)
	return nil
}

// warnPrefixSpread flags configurations whose subnet-type spread leaves
// little room inside an AZ block. Hard overflow still surfaces from the
// allocator; this is diagnostics only.
func warnPrefixSpread(cfg *model.Config) {
	if len(cfg.SubnetTypes) == 0 {
		return
	}
	minPrefix, maxPrefix := cfg.SubnetTypes[0].PrefixLength, cfg.SubnetTypes[0].PrefixLength
	for _, st := range cfg.SubnetTypes[1:] {
		if st.PrefixLength < minPrefix {
			minPrefix = st.PrefixLength
		}
		if st.PrefixLength > maxPrefix {
			maxPrefix = st.PrefixLength
		}
	}
	az := cfg.PrefixLengths.AZ
	if az+maxPrefix-minPrefix >= 32-az {
		log.Printf("WARN: subnet type prefixes span /%d to /%d inside a /%d AZ block; alignment gaps may exhaust the AZ",
			minPrefix, maxPrefix, az)
	}
}
