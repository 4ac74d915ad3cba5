// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// normalize converts the raw document into the canonical model, applying
// defaults and rejecting structural violations. The canonical config is the
// sole input accepted by the planner.
func normalize(raw *rawConfig) (*model.Config, error) {
	cfg := &model.Config{}

	if raw.BaseCidr == "" {
		return nil, cidr.NewError(cidr.KindValidationFailed, "baseCidr is required").
			With("field", "baseCidr")
	}
	base, err := cidr.Parse(raw.BaseCidr)
	if err != nil {
		return nil, fmt.Errorf("baseCidr: %w", err)
	}
	cfg.BaseCidr = base

	cfg.PrefixLengths, err = normalizePrefixLengths(raw.PrefixLengths)
	if err != nil {
		return nil, err
	}

	if len(raw.Accounts) == 0 {
		return nil, cidr.NewError(cidr.KindValidationFailed, "at least one account is required").
			With("field", "accounts")
	}
	for i, rawAcct := range raw.Accounts {
		account, err := normalizeAccount(i, rawAcct)
		if err != nil {
			return nil, err
		}
		cfg.Accounts = append(cfg.Accounts, account)
	}

	if len(raw.SubnetTypes.Entries) == 0 {
		return nil, cidr.NewError(cidr.KindValidationFailed, "at least one subnet type is required").
			With("field", "subnetTypes")
	}
	seen := make(map[string]bool)
	for _, entry := range raw.SubnetTypes.Entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, cidr.NewError(cidr.KindValidationFailed, "subnet type name must not be empty").
				With("field", "subnetTypes")
		}
		if seen[name] {
			return nil, cidr.NewError(cidr.KindValidationFailed, "duplicate subnet type %q", name).
				With("field", "subnetTypes")
		}
		seen[name] = true
		if entry.PrefixLength < 1 || entry.PrefixLength > 32 {
			return nil, cidr.NewError(cidr.KindValidationFailed, "subnet type %q prefix /%d out of range", name, entry.PrefixLength).
				With("field", "subnetTypes."+name)
		}
		// A role block larger than its enclosing AZ block can never be
		// carved; reject here rather than deep inside the allocator walk.
		if entry.PrefixLength < cfg.PrefixLengths.AZ {
			return nil, cidr.NewError(cidr.KindValidationFailed,
				"subnet type %q prefix /%d is larger than the AZ block /%d", name, entry.PrefixLength, cfg.PrefixLengths.AZ).
				With("field", "subnetTypes."+name).
				With("azPrefix", strconv.Itoa(cfg.PrefixLengths.AZ))
		}
		cfg.SubnetTypes = append(cfg.SubnetTypes, model.SubnetType{Name: name, PrefixLength: entry.PrefixLength})
	}

	if len(raw.CloudProviders) > 0 {
		cfg.CloudProviders = append(cfg.CloudProviders, raw.CloudProviders...)
	} else {
		cfg.CloudProviders = deriveProviders(cfg.Accounts)
	}

	return cfg, nil
}

func normalizePrefixLengths(raw *rawPrefixes) (model.PrefixLengths, error) {
	lengths := model.PrefixLengths{
		Account: model.DefaultAccountPrefix,
		Region:  model.DefaultRegionPrefix,
		AZ:      model.DefaultAZPrefix,
	}
	if raw == nil {
		return lengths, nil
	}
	fields := []struct {
		name  string
		value *int
		dst   *int
	}{
		{"account", raw.Account, &lengths.Account},
		{"region", raw.Region, &lengths.Region},
		{"az", raw.AZ, &lengths.AZ},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 1 || *f.value > 32 {
			return lengths, cidr.NewError(cidr.KindValidationFailed, "prefixLengths.%s /%d out of range", f.name, *f.value).
				With("field", "prefixLengths."+f.name)
		}
		*f.dst = *f.value
	}
	return lengths, nil
}

func normalizeAccount(index int, raw rawAccount) (model.Account, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return model.Account{}, cidr.NewError(cidr.KindValidationFailed, "account name must not be empty").
			With("field", fmt.Sprintf("accounts[%d].name", index))
	}

	if len(raw.Clouds.Entries) == 0 {
		return model.Account{}, cidr.NewError(cidr.KindValidationFailed, "account %q declares no clouds", name).
			With("field", fmt.Sprintf("accounts[%d].clouds", index))
	}

	account := model.Account{Name: name}
	for _, entry := range raw.Clouds.Entries {
		if len(entry.Config.Regions) == 0 {
			return model.Account{}, cidr.NewError(cidr.KindValidationFailed,
				"account %q cloud %q declares no regions", name, entry.Provider).
				With("field", fmt.Sprintf("accounts[%d].clouds.%s.regions", index, entry.Provider))
		}
		deployment := model.CloudDeployment{
			Provider: entry.Provider,
			Regions:  append([]string(nil), entry.Config.Regions...),
		}
		if entry.Config.BaseCidr != "" {
			override, err := cidr.Parse(entry.Config.BaseCidr)
			if err != nil {
				return model.Account{}, fmt.Errorf("accounts[%d].clouds.%s.baseCidr: %w", index, entry.Provider, err)
			}
			deployment.BaseCidr = &override
		}
		account.Clouds = append(account.Clouds, deployment)
	}
	return account, nil
}

// deriveProviders collects the set-union of provider keys across all
// accounts, preserving first-seen order.
func deriveProviders(accounts []model.Account) []string {
	var providers []string
	seen := make(map[string]bool)
	for _, account := range accounts {
		for _, cloud := range account.Clouds {
			if !seen[cloud.Provider] {
				seen[cloud.Provider] = true
				providers = append(providers, cloud.Provider)
			}
		}
	}
	return providers
}
