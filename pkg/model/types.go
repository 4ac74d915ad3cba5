// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package model

import (
	"errors"
	"time"

	"github.com/wingedpig/cidrplan/pkg/cidr"
)

// Default prefix lengths applied when the config omits them.
const (
	DefaultAccountPrefix = 16
	DefaultRegionPrefix  = 20
	DefaultAZPrefix      = 24
)

// PrefixLengths holds the block size used at each hierarchy level when the
// level is not given a size by an explicit override.
type PrefixLengths struct {
	Account int
	Region  int
	AZ      int
}

// SubnetType is one role entry of the subnetTypes declaration. The slice
// order downstream is the user's declaration order; it determines which role
// receives which sub-block inside an AZ.
type SubnetType struct {
	Name         string
	PrefixLength int
}

// CloudDeployment is one cloud provider entry under an account, in the
// order the user declared the provider keys.
type CloudDeployment struct {
	Provider string
	BaseCidr *cidr.Block // optional override; escapes the root space
	Regions  []string
}

// Account is one account entry of the config.
type Account struct {
	Name   string
	Clouds []CloudDeployment
}

// Config is the canonical, normalized configuration. It is the sole input
// accepted by the planner; all entities are immutable after normalization.
type Config struct {
	BaseCidr       cidr.Block
	PrefixLengths  PrefixLengths
	CloudProviders []string
	Accounts       []Account
	SubnetTypes    []SubnetType
}

// SubnetTypeNames returns the role names in declaration order.
func (c *Config) SubnetTypeNames() []string {
	names := make([]string, len(c.SubnetTypes))
	for i, st := range c.SubnetTypes {
		names[i] = st.Name
	}
	return names
}

// FilterProvider returns a copy of the config restricted to a single cloud
// provider. Accounts with no deployment for that provider are dropped.
func (c *Config) FilterProvider(provider string) *Config {
	out := &Config{
		BaseCidr:      c.BaseCidr,
		PrefixLengths: c.PrefixLengths,
		SubnetTypes:   append([]SubnetType(nil), c.SubnetTypes...),
	}
	for _, account := range c.Accounts {
		var clouds []CloudDeployment
		for _, cloud := range account.Clouds {
			if cloud.Provider == provider {
				clouds = append(clouds, cloud)
			}
		}
		if len(clouds) > 0 {
			out.Accounts = append(out.Accounts, Account{Name: account.Name, Clouds: clouds})
		}
	}
	for _, p := range c.CloudProviders {
		if p == provider {
			out.CloudProviders = append(out.CloudProviders, p)
		}
	}
	return out
}

// Allocation is one emitted subnet record.
type Allocation struct {
	AccountName      string
	VpcName          string
	CloudProvider    string
	RegionName       string
	AvailabilityZone string
	RegionCidr       cidr.Block
	VpcCidr          cidr.Block
	AzCidr           cidr.Block
	SubnetCidr       cidr.Block
	SubnetRole       string
	UsableIPs        uint64
}

// PlanStats summarizes a stored plan database.
type PlanStats struct {
	TotalRecords     int64
	RecordsByCloud   map[string]int64
	RecordsByAccount map[string]int64
	LastBuiltAt      time.Time
	SchemaVersion    int
	PlanID           string
	GeneratorVersion string
}

// Database sentinel errors.
var (
	ErrNotFound       = errors.New("no subnet record found for IP")
	ErrInvalidIP      = errors.New("invalid IP address")
	ErrDatabaseClosed = errors.New("database is closed")
)
