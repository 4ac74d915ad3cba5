// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package planner

import (
	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// Overlap is one pair of overlapping subnet records found in a plan.
type Overlap struct {
	Cidr1  cidr.Block
	Cidr2  cidr.Block
	Alloc1 model.Allocation
	Alloc2 model.Allocation
}

// ValidationResult is the outcome of an overlap scan.
type ValidationResult struct {
	Valid    bool
	Overlaps []Overlap
}

// Err converts an invalid result into a structured error naming the first
// offending pair, or returns nil for a valid plan.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	first := r.Overlaps[0]
	return cidr.NewError(cidr.KindCidrOverlap, "plan contains %d overlapping subnet pair(s)", len(r.Overlaps)).
		With("cidr1", first.Cidr1.String()).
		With("cidr2", first.Cidr2.String()).
		With("subnet1", first.Alloc1.AccountName+"/"+first.Alloc1.CloudProvider+"/"+first.Alloc1.AvailabilityZone+"/"+first.Alloc1.SubnetRole).
		With("subnet2", first.Alloc2.AccountName+"/"+first.Alloc2.CloudProvider+"/"+first.Alloc2.AvailabilityZone+"/"+first.Alloc2.SubnetRole)
}

// ValidateNoOverlappingCidrs scans every unordered pair of subnet CIDRs in
// a plan for overlap. Plans produced by Generate satisfy this by
// construction; the scan exists to catch regressions and to vet
// externally supplied allocation files.
func ValidateNoOverlappingCidrs(allocations []model.Allocation) ValidationResult {
	result := ValidationResult{Valid: true}
	for i := 0; i < len(allocations); i++ {
		for j := i + 1; j < len(allocations); j++ {
			if allocations[i].SubnetCidr.Overlaps(allocations[j].SubnetCidr) {
				result.Valid = false
				result.Overlaps = append(result.Overlaps, Overlap{
					Cidr1:  allocations[i].SubnetCidr,
					Cidr2:  allocations[j].SubnetCidr,
					Alloc1: allocations[i],
					Alloc2: allocations[j],
				})
			}
		}
	}
	return result
}
