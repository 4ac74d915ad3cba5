// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawConfig mirrors the on-disk config shape before normalization. Unknown
// top-level keys are ignored by the decoder for forward compatibility.
type rawConfig struct {
	BaseCidr       string         `yaml:"baseCidr"`
	PrefixLengths  *rawPrefixes   `yaml:"prefixLengths"`
	CloudProviders []string       `yaml:"cloudProviders"`
	Accounts       []rawAccount   `yaml:"accounts"`
	SubnetTypes    rawSubnetTypes `yaml:"subnetTypes"`
}

type rawPrefixes struct {
	Account *int `yaml:"account"`
	Region  *int `yaml:"region"`
	AZ      *int `yaml:"az"`
}

type rawAccount struct {
	Name   string    `yaml:"name"`
	Clouds rawClouds `yaml:"clouds"`
}

type rawCloudConfig struct {
	BaseCidr string   `yaml:"baseCidr"`
	Regions  []string `yaml:"regions"`
}

type rawCloudEntry struct {
	Provider string
	Config   rawCloudConfig
}

// rawClouds preserves the declaration order of the provider keys, which a
// plain map would lose. Ordering is part of the allocation contract.
type rawClouds struct {
	Entries []rawCloudEntry
}

func (c *rawClouds) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("clouds must be a mapping of provider to cloud config (line %d)", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var cfg rawCloudConfig
		if err := valueNode.Decode(&cfg); err != nil {
			return fmt.Errorf("cloud %q: %w", keyNode.Value, err)
		}
		c.Entries = append(c.Entries, rawCloudEntry{Provider: keyNode.Value, Config: cfg})
	}
	return nil
}

type rawSubnetType struct {
	Name         string `yaml:"name"`
	PrefixLength int    `yaml:"prefixLength"`
}

// rawSubnetTypes accepts both declared shapes: a mapping of role name to
// prefix length, or a sequence of {name, prefixLength} objects. Declaration
// order is preserved either way.
type rawSubnetTypes struct {
	Entries []rawSubnetType
}

func (s *rawSubnetTypes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			var prefix int
			if err := valueNode.Decode(&prefix); err != nil {
				return fmt.Errorf("subnet type %q: %w", keyNode.Value, err)
			}
			s.Entries = append(s.Entries, rawSubnetType{Name: keyNode.Value, PrefixLength: prefix})
		}
		return nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var entry rawSubnetType
			if err := item.Decode(&entry); err != nil {
				return fmt.Errorf("subnet type entry: %w", err)
			}
			s.Entries = append(s.Entries, entry)
		}
		return nil
	default:
		return fmt.Errorf("subnetTypes must be a mapping or a list (line %d)", node.Line)
	}
}
