// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package cloudzones

import (
	"fmt"
	"log"
	"regexp"
)

// DefaultZoneCount is the number of availability zones planned per region.
const DefaultZoneCount = 3

// Provider identifiers as they appear in config cloud keys.
const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
	ProviderGCP   = "gcp"
)

var fallbackLetters = []string{"a", "b", "c", "d", "e", "f"}

// awsZoneLetters maps AWS regions to their zone suffix letters.
var awsZoneLetters = map[string][]string{
	"us-east-1":      {"a", "b", "c", "d", "e", "f"},
	"us-east-2":      {"a", "b", "c"},
	"us-west-1":      {"a", "b", "c"},
	"us-west-2":      {"a", "b", "c", "d"},
	"ca-central-1":   {"a", "b", "d"},
	"sa-east-1":      {"a", "b", "c"},
	"eu-west-1":      {"a", "b", "c"},
	"eu-west-2":      {"a", "b", "c"},
	"eu-west-3":      {"a", "b", "c"},
	"eu-central-1":   {"a", "b", "c"},
	"eu-north-1":     {"a", "b", "c"},
	"eu-south-1":     {"a", "b", "c"},
	"ap-south-1":     {"a", "b", "c"},
	"ap-northeast-1": {"a", "c", "d"},
	"ap-northeast-2": {"a", "b", "c", "d"},
	"ap-northeast-3": {"a", "b", "c"},
	"ap-southeast-1": {"a", "b", "c"},
	"ap-southeast-2": {"a", "b", "c"},
	"ap-east-1":      {"a", "b", "c"},
	"me-south-1":     {"a", "b", "c"},
	"af-south-1":     {"a", "b", "c"},
}

// gcpZoneLetters maps GCP regions to their zone suffix letters. Some
// regions do not start at "a" (us-east1 is b/c/d).
var gcpZoneLetters = map[string][]string{
	"us-central1":             {"a", "b", "c", "f"},
	"us-east1":                {"b", "c", "d"},
	"us-east4":                {"a", "b", "c"},
	"us-west1":                {"a", "b", "c"},
	"us-west2":                {"a", "b", "c"},
	"us-west3":                {"a", "b", "c"},
	"us-west4":                {"a", "b", "c"},
	"northamerica-northeast1": {"a", "b", "c"},
	"southamerica-east1":      {"a", "b", "c"},
	"europe-west1":            {"b", "c", "d"},
	"europe-west2":            {"a", "b", "c"},
	"europe-west3":            {"a", "b", "c"},
	"europe-west4":            {"a", "b", "c"},
	"europe-west6":            {"a", "b", "c"},
	"europe-north1":           {"a", "b", "c"},
	"asia-east1":              {"a", "b", "c"},
	"asia-east2":              {"a", "b", "c"},
	"asia-northeast1":         {"a", "b", "c"},
	"asia-northeast2":         {"a", "b", "c"},
	"asia-northeast3":         {"a", "b", "c"},
	"asia-south1":             {"a", "b", "c"},
	"asia-southeast1":         {"a", "b", "c"},
	"asia-southeast2":         {"a", "b", "c"},
	"australia-southeast1":    {"a", "b", "c"},
}

// azureZonalRegions lists Azure regions with availability zone support.
// Names are generated for any region; this set only drives a warning.
var azureZonalRegions = map[string]bool{
	"eastus":             true,
	"eastus2":            true,
	"centralus":          true,
	"southcentralus":     true,
	"westus2":            true,
	"westus3":            true,
	"canadacentral":      true,
	"brazilsouth":        true,
	"northeurope":        true,
	"westeurope":         true,
	"uksouth":            true,
	"francecentral":      true,
	"germanywestcentral": true,
	"swedencentral":      true,
	"norwayeast":         true,
	"eastasia":           true,
	"southeastasia":      true,
	"japaneast":          true,
	"koreacentral":       true,
	"centralindia":       true,
	"australiaeast":      true,
	"southafricanorth":   true,
	"uaenorth":           true,
}

// Names produces count availability zone identifiers for a region in the
// provider's native form. Unknown providers get "region-azN". The result is
// deterministic for a given (provider, region, count).
func Names(provider, region string, count int) []string {
	if count <= 0 {
		count = DefaultZoneCount
	}
	switch provider {
	case ProviderAWS:
		return awsNames(region, count)
	case ProviderAzure:
		return azureNames(region, count)
	case ProviderGCP:
		return gcpNames(region, count)
	default:
		names := make([]string, count)
		for i := range names {
			names[i] = fmt.Sprintf("%s-az%d", region, i+1)
		}
		return names
	}
}

func awsNames(region string, count int) []string {
	letters, ok := awsZoneLetters[region]
	if !ok {
		letters = fallbackLetters
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, region+letters[i%len(letters)])
	}
	return names
}

func azureNames(region string, count int) []string {
	if !azureZonalRegions[region] {
		log.Printf("WARN: Azure region %s is not known to support availability zones", region)
	}
	names := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		names = append(names, fmt.Sprintf("%s-%d", region, i))
	}
	return names
}

func gcpNames(region string, count int) []string {
	letters, ok := gcpZoneLetters[region]
	if !ok {
		letters = fallbackLetters
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, fmt.Sprintf("%s-%s", region, letters[i%len(letters)]))
	}
	return names
}

var (
	// aws regions look like us-east-1: hyphenated words with a bare
	// numeric final segment.
	awsRegionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)
	// gcp regions look like us-east1: hyphenated words with the digit
	// glued to the last word.
	gcpRegionPattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*-[a-z]+\d+$`)
	// azure regions are lowercase words without hyphens (eastus2).
	azureRegionPattern = regexp.MustCompile(`^[a-z]+\d*$`)
)

// InferProvider guesses the provider from the shape of a region name.
// The heuristic can misclassify ambiguous names; configs should declare
// clouds explicitly. Returns "" when no pattern matches.
func InferProvider(region string) string {
	switch {
	case awsRegionPattern.MatchString(region):
		return ProviderAWS
	case gcpRegionPattern.MatchString(region):
		return ProviderGCP
	case azureRegionPattern.MatchString(region):
		return ProviderAzure
	default:
		return ""
	}
}

// IsKnownProvider reports whether the identifier is one of the supported
// cloud providers.
func IsKnownProvider(provider string) bool {
	return provider == ProviderAWS || provider == ProviderAzure || provider == ProviderGCP
}
