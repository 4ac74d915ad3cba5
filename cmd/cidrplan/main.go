// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/config"
	"github.com/wingedpig/cidrplan/pkg/export/ipam"
	"github.com/wingedpig/cidrplan/pkg/model"
	"github.com/wingedpig/cidrplan/pkg/output"
	"github.com/wingedpig/cidrplan/pkg/plandb"
	"github.com/wingedpig/cidrplan/pkg/planner"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "generate":
		generateCmd()
	case "validate":
		validateCmd()
	case "analyze":
		analyzeCmd()
	case "validate-allocations":
		validateAllocationsCmd()
	case "export":
		exportCmd()
	case "version":
		fmt.Printf("cidrplan version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cidrplan - Hierarchical IPv4 CIDR planner for multi-cloud infrastructure

Usage:
  cidrplan generate [options]               Generate the subnet plan CSV
  cidrplan validate [options]               Validate a config without allocating
  cidrplan analyze [options]                Show region/subnet counts for a config
  cidrplan validate-allocations [options]   Re-check an allocation CSV for overlaps
  cidrplan export [options]                 Push an allocation CSV to an IPAM service
  cidrplan version                          Show version
  cidrplan help                             Show this help

Generate Options:
  --config string        Path to config file, YAML or JSON (required)
  --output string        Path to output CSV (default: stdout)
  --provider string      Only plan one provider (aws|azure|gcp)
  --base-cidr string     Override the config's root CIDR
  --db string            Also store the plan in a LevelDB plan database

Export Options:
  --allocations string   Path to allocation CSV (required)
  --url string           IPAM endpoint base URL (required)
  --token string         Bearer token for the IPAM API
  --rate-limit float     Requests per second (default: 10.0)

Examples:
  # Plan a root /8 across every account in the config
  cidrplan generate --config=network.yaml --output=subnets.csv

  # Plan only the aws deployments and keep a queryable plan database
  cidrplan generate --config=network.yaml --provider=aws --db=./plandb

  # Re-check a CSV produced elsewhere
  cidrplan validate-allocations --allocations=subnets.csv`)
}

func generateCmd() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (required)")
	outputPath := fs.String("output", "", "Path to output CSV (default: stdout)")
	provider := fs.String("provider", "", "Only plan one provider (aws|azure|gcp)")
	baseCidr := fs.String("base-cidr", "", "Override the config's root CIDR")
	dbPath := fs.String("db", "", "Also store the plan in a LevelDB plan database")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(fs, *configPath)

	if *baseCidr != "" {
		base, err := cidr.Parse(*baseCidr)
		if err != nil {
			log.Fatalf("ERROR: Invalid --base-cidr: %v", err)
		}
		cfg.BaseCidr = base
	}
	if *provider != "" {
		cfg = cfg.FilterProvider(*provider)
		if len(cfg.Accounts) == 0 {
			log.Fatalf("ERROR: No account in the config deploys to provider %q", *provider)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("ERROR: Config validation failed: %v", err)
	}

	allocations, err := planner.New(cfg).Generate()
	if err != nil {
		log.Fatalf("ERROR: Allocation failed: %v", err)
	}

	if result := planner.ValidateNoOverlappingCidrs(allocations); !result.Valid {
		log.Fatalf("ERROR: Generated plan failed the overlap check: %v", result.Err())
	}

	if *outputPath != "" {
		if err := output.WriteFile(*outputPath, allocations); err != nil {
			log.Fatalf("ERROR: Failed to write CSV: %v", err)
		}
		log.Printf("INFO: Wrote %d subnet records to %s", len(allocations), *outputPath)
	} else {
		if err := output.Write(os.Stdout, allocations); err != nil {
			log.Fatalf("ERROR: Failed to write CSV: %v", err)
		}
	}

	if *dbPath != "" {
		storePlan(*dbPath, allocations)
	}
}

func storePlan(path string, allocations []model.Allocation) {
	db, err := plandb.Open(path)
	if err != nil {
		log.Fatalf("ERROR: Failed to open plan database: %v", err)
	}
	defer db.Close()

	if err := db.StorePlan(allocations, "cidrplan/"+version); err != nil {
		log.Fatalf("ERROR: Failed to store plan: %v", err)
	}
	log.Printf("INFO: Stored %d subnet records in %s", len(allocations), path)
}

func validateCmd() {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (required)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(fs, *configPath)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("ERROR: Config validation failed: %v", err)
	}

	log.Println("INFO: Config is valid")
}

func analyzeCmd() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (required)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(fs, *configPath)
	analysis := planner.Analyze(cfg)

	fmt.Printf("Accounts:      %d\n", analysis.Accounts)
	fmt.Printf("Regions:       %d\n", analysis.Regions)
	fmt.Printf("Subnet types:  %d\n", analysis.SubnetTypes)
	fmt.Printf("Subnets:       %d\n", analysis.Subnets)
	for _, pa := range analysis.Providers {
		fmt.Printf("  %-8s accounts=%d regions=%d subnets=%d\n", pa.Provider, pa.Accounts, pa.Regions, pa.Subnets)
	}
}

func validateAllocationsCmd() {
	fs := flag.NewFlagSet("validate-allocations", flag.ExitOnError)
	allocationsPath := fs.String("allocations", "", "Path to allocation CSV (required)")
	fs.Parse(os.Args[2:])

	if *allocationsPath == "" {
		fatalUsage(fs, "--allocations is required")
	}

	allocations, err := output.ReadFile(*allocationsPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to read allocations: %v", err)
	}

	result := planner.ValidateNoOverlappingCidrs(allocations)
	if !result.Valid {
		for _, overlap := range result.Overlaps {
			log.Printf("ERROR: %s (%s/%s) overlaps %s (%s/%s)",
				overlap.Cidr1, overlap.Alloc1.AccountName, overlap.Alloc1.SubnetRole,
				overlap.Cidr2, overlap.Alloc2.AccountName, overlap.Alloc2.SubnetRole)
		}
		log.Fatalf("ERROR: Found %d overlapping subnet pair(s) in %d records", len(result.Overlaps), len(allocations))
	}

	log.Printf("INFO: %d records, no overlaps", len(allocations))
}

func exportCmd() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	allocationsPath := fs.String("allocations", "", "Path to allocation CSV (required)")
	url := fs.String("url", "", "IPAM endpoint base URL (required)")
	token := fs.String("token", "", "Bearer token for the IPAM API")
	rateLimit := fs.Float64("rate-limit", 10.0, "Requests per second")
	fs.Parse(os.Args[2:])

	if *allocationsPath == "" {
		fatalUsage(fs, "--allocations is required")
	}
	if *url == "" {
		fatalUsage(fs, "--url is required")
	}

	allocations, err := output.ReadFile(*allocationsPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to read allocations: %v", err)
	}

	ctx := context.Background()
	client := ipam.NewClient(ctx, *url, *token, "cidrplan/"+version, *rateLimit)
	if err := client.PushPlan(ctx, allocations); err != nil {
		log.Fatalf("ERROR: Export failed: %v", err)
	}
}

func loadConfig(fs *flag.FlagSet, path string) *model.Config {
	if path == "" {
		fatalUsage(fs, "--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	return cfg
}

func fatalUsage(fs *flag.FlagSet, msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", msg)
	fmt.Fprintf(os.Stderr, "Options:\n")
	fs.PrintDefaults()
	os.Exit(1)
}
