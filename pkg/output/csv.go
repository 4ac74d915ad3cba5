// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// Header is the fixed CSV column order.
var Header = []string{
	"Cloud Provider",
	"Account Name",
	"VPC Name",
	"Region Name",
	"Availability Zone",
	"Region CIDR",
	"VPC CIDR",
	"AZ CIDR",
	"Subnet CIDR",
	"Subnet Role",
	"Usable IPs",
}

// Sort re-orders a copy of the allocations into the canonical output
// ordering: a stable sort by (cloud provider, account, region, AZ, role).
// Stability preserves the planner's emission order among equal keys.
func Sort(allocations []model.Allocation) []model.Allocation {
	sorted := make([]model.Allocation, len(allocations))
	copy(sorted, allocations)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CloudProvider != b.CloudProvider {
			return a.CloudProvider < b.CloudProvider
		}
		if a.AccountName != b.AccountName {
			return a.AccountName < b.AccountName
		}
		if a.RegionName != b.RegionName {
			return a.RegionName < b.RegionName
		}
		if a.AvailabilityZone != b.AvailabilityZone {
			return a.AvailabilityZone < b.AvailabilityZone
		}
		return a.SubnetRole < b.SubnetRole
	})
	return sorted
}

// Write renders the allocations as CSV in canonical order.
func Write(w io.Writer, allocations []model.Allocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, a := range Sort(allocations) {
		row := []string{
			a.CloudProvider,
			a.AccountName,
			a.VpcName,
			a.RegionName,
			a.AvailabilityZone,
			a.RegionCidr.String(),
			a.VpcCidr.String(),
			a.AzCidr.String(),
			a.SubnetCidr.String(),
			a.SubnetRole,
			strconv.FormatUint(a.UsableIPs, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the allocations to a CSV file.
func WriteFile(path string, allocations []model.Allocation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := Write(f, allocations); err != nil {
		return err
	}
	return f.Close()
}

// Read parses an allocation CSV back into records, for re-validation of
// previously written plans. The header is matched case-insensitively after
// trimming.
func Read(r io.Reader) ([]model.Allocation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var allocations []model.Allocation
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++
		alloc, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		allocations = append(allocations, alloc)
	}
	return allocations, nil
}

// ReadFile parses an allocation CSV file.
func ReadFile(path string) ([]model.Allocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allocations file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func checkHeader(header []string) error {
	if len(header) != len(Header) {
		return fmt.Errorf("unexpected CSV header: got %d columns, want %d", len(header), len(Header))
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), Header[i]) {
			return fmt.Errorf("unexpected CSV column %d: got %q, want %q", i+1, col, Header[i])
		}
	}
	return nil
}

func parseRow(row []string) (model.Allocation, error) {
	if len(row) != len(Header) {
		return model.Allocation{}, fmt.Errorf("got %d columns, want %d", len(row), len(Header))
	}

	blocks := make([]cidr.Block, 4)
	for i, col := range []int{5, 6, 7, 8} {
		block, err := cidr.Parse(strings.TrimSpace(row[col]))
		if err != nil {
			return model.Allocation{}, fmt.Errorf("column %q: %w", Header[col], err)
		}
		blocks[i] = block
	}

	usable, err := strconv.ParseUint(strings.TrimSpace(row[10]), 10, 64)
	if err != nil {
		return model.Allocation{}, fmt.Errorf("column %q: %w", Header[10], err)
	}

	return model.Allocation{
		CloudProvider:    strings.TrimSpace(row[0]),
		AccountName:      strings.TrimSpace(row[1]),
		VpcName:          strings.TrimSpace(row[2]),
		RegionName:       strings.TrimSpace(row[3]),
		AvailabilityZone: strings.TrimSpace(row[4]),
		RegionCidr:       blocks[0],
		VpcCidr:          blocks[1],
		AzCidr:           blocks[2],
		SubnetCidr:       blocks[3],
		SubnetRole:       strings.TrimSpace(row[9]),
		UsableIPs:        usable,
	}, nil
}
