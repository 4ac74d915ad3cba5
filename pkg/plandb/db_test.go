// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package plandb

import (
	"context"
	"net/netip"
	"os"
	"testing"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

func testAllocation(subnet, account, role string) model.Allocation {
	return model.Allocation{
		AccountName:      account,
		VpcName:          account + "-vpc",
		CloudProvider:    "aws",
		RegionName:       "us-east-1",
		AvailabilityZone: "us-east-1a",
		RegionCidr:       cidr.MustParse("10.0.0.0/20"),
		VpcCidr:          cidr.MustParse("10.0.0.0/16"),
		AzCidr:           cidr.MustParse("10.0.0.0/24"),
		SubnetCidr:       cidr.MustParse(subnet),
		SubnetRole:       role,
		UsableIPs:        cidr.MustParse(subnet).UsableIPs(),
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "plandb-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	db, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenClose(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "plandb-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	db, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if db.Path() != tmpDir {
		t.Errorf("got path %s, want %s", db.Path(), tmpDir)
	}

	if db.IsClosed() {
		t.Error("database should not be closed")
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	if !db.IsClosed() {
		t.Error("database should be closed")
	}
}

func TestPutGetAllocation(t *testing.T) {
	db := openTestDB(t)

	rec := testAllocation("10.0.0.0/26", "prod", "Public")
	if err := db.PutAllocation(&rec); err != nil {
		t.Fatalf("Failed to put allocation: %v", err)
	}

	found, err := db.GetByIP(netip.MustParseAddr("10.0.0.33"))
	if err != nil {
		t.Fatalf("Failed to get by IP: %v", err)
	}

	if found.SubnetCidr != rec.SubnetCidr {
		t.Errorf("got subnet %s, want %s", found.SubnetCidr, rec.SubnetCidr)
	}
	if found.AccountName != rec.AccountName {
		t.Errorf("got account %s, want %s", found.AccountName, rec.AccountName)
	}
	if found.SubnetRole != rec.SubnetRole {
		t.Errorf("got role %s, want %s", found.SubnetRole, rec.SubnetRole)
	}
	if found.UsableIPs != 62 {
		t.Errorf("got usable IPs %d, want 62", found.UsableIPs)
	}
}

func TestLookupNotFound(t *testing.T) {
	db := openTestDB(t)

	rec := testAllocation("10.0.0.0/26", "prod", "Public")
	if err := db.PutAllocation(&rec); err != nil {
		t.Fatalf("Failed to put allocation: %v", err)
	}

	// Past the end of the only stored subnet.
	if _, err := db.GetByIP(netip.MustParseAddr("10.0.0.64")); err != model.ErrNotFound {
		t.Errorf("got error %v, want %v", err, model.ErrNotFound)
	}
	// Before the only stored subnet.
	if _, err := db.GetByIP(netip.MustParseAddr("9.255.255.255")); err != model.ErrNotFound {
		t.Errorf("got error %v, want %v", err, model.ErrNotFound)
	}
	// Not IPv4.
	if _, err := db.GetByIP(netip.MustParseAddr("2001:db8::1")); err != model.ErrInvalidIP {
		t.Errorf("got error %v, want %v", err, model.ErrInvalidIP)
	}
}

func TestOverlapRejected(t *testing.T) {
	db := openTestDB(t)

	first := testAllocation("10.0.0.0/26", "prod", "Public")
	if err := db.PutAllocation(&first); err != nil {
		t.Fatalf("Failed to put allocation: %v", err)
	}

	overlapping := testAllocation("10.0.0.32/27", "dev", "Public")
	err := db.PutAllocation(&overlapping)
	if err == nil {
		t.Fatal("expected overlap error, got nil")
	}
	if !cidr.IsKind(err, cidr.KindCidrOverlap) {
		t.Errorf("got %v, want kind %s", err, cidr.KindCidrOverlap)
	}

	// The exact same block is an update, not a conflict.
	update := testAllocation("10.0.0.0/26", "prod", "Public")
	if err := db.PutAllocation(&update); err != nil {
		t.Errorf("re-storing the same block should succeed: %v", err)
	}
}

func TestStorePlanAndLookup(t *testing.T) {
	db := openTestDB(t)

	plan := []model.Allocation{
		testAllocation("10.0.0.0/26", "prod", "Public"),
		testAllocation("10.0.0.64/27", "prod", "Private"),
		testAllocation("10.0.1.0/26", "prod", "Public"),
	}
	if err := db.StorePlan(plan, "cidrplan-test"); err != nil {
		t.Fatalf("Failed to store plan: %v", err)
	}

	tests := []struct {
		ip       string
		wantCidr string
		wantRole string
	}{
		{"10.0.0.5", "10.0.0.0/26", "Public"},
		{"10.0.0.90", "10.0.0.64/27", "Private"},
		{"10.0.1.62", "10.0.1.0/26", "Public"},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			rec, err := db.LookupString(tt.ip)
			if err != nil {
				t.Fatalf("Failed to lookup %s: %v", tt.ip, err)
			}
			if rec.SubnetCidr.String() != tt.wantCidr {
				t.Errorf("got subnet %s, want %s", rec.SubnetCidr, tt.wantCidr)
			}
			if rec.SubnetRole != tt.wantRole {
				t.Errorf("got role %s, want %s", rec.SubnetRole, tt.wantRole)
			}
		})
	}

	count, err := db.CountAllocations()
	if err != nil {
		t.Fatalf("Failed to count allocations: %v", err)
	}
	if count != 3 {
		t.Errorf("got count %d, want 3", count)
	}
}

func TestMetadataAndStats(t *testing.T) {
	db := openTestDB(t)

	plan := []model.Allocation{
		testAllocation("10.0.0.0/26", "prod", "Public"),
		testAllocation("10.0.0.64/27", "dev", "Private"),
	}
	if err := db.StorePlan(plan, "cidrplan-test"); err != nil {
		t.Fatalf("Failed to store plan: %v", err)
	}

	version, err := db.GetSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("got schema version %d, want %d", version, schemaVersion)
	}

	planID, err := db.GetPlanID()
	if err != nil {
		t.Fatalf("Failed to get plan ID: %v", err)
	}
	if planID == "" {
		t.Error("plan ID should be set")
	}

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalRecords != 2 {
		t.Errorf("got total records %d, want 2", stats.TotalRecords)
	}
	if stats.RecordsByCloud["aws"] != 2 {
		t.Errorf("got aws count %d, want 2", stats.RecordsByCloud["aws"])
	}
	if stats.RecordsByAccount["prod"] != 1 {
		t.Errorf("got prod count %d, want 1", stats.RecordsByAccount["prod"])
	}
	if stats.GeneratorVersion != "cidrplan-test" {
		t.Errorf("got generator version %s, want cidrplan-test", stats.GeneratorVersion)
	}
}
