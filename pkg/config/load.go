// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wingedpig/cidrplan/pkg/model"
)

// Load reads, decodes and normalizes a config file. Both YAML and JSON are
// accepted; JSON documents parse through the same YAML decoder, so mapping
// order is preserved for either format.
func Load(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and normalizes a config document.
func Parse(data []byte) (*model.Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return normalize(&raw)
}
