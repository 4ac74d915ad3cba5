// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/cidrplan/pkg/model"
	"github.com/wingedpig/cidrplan/pkg/plandb"
)

const version = "1.0.0"

func main() {
	// Parse flags
	dbPath := flag.String("db", "./plandb", "Path to LevelDB plan database")
	jsonOutput := flag.Bool("json", true, "Output as JSON")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cidrplan-lookup version %s\n", version)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cidrplan-lookup [options] <ip-address>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cidrplan-lookup 10.0.3.17\n")
		fmt.Fprintf(os.Stderr, "  cidrplan-lookup --db=/data/plandb 10.16.0.9\n")
		os.Exit(1)
	}

	ipStr := flag.Arg(0)

	db, err := plandb.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open plan database: %v", err)
	}
	defer db.Close()

	rec, err := db.LookupString(ipStr)
	if err != nil {
		if err == model.ErrNotFound {
			if *jsonOutput {
				fmt.Printf("{\"error\":\"no subnet record found\",\"ip\":\"%s\"}\n", ipStr)
			} else {
				fmt.Printf("No subnet record found for %s\n", ipStr)
			}
			os.Exit(1)
		}
		log.Fatalf("ERROR: Lookup failed: %v", err)
	}

	if *jsonOutput {
		printJSON(ipStr, rec)
	} else {
		printHumanReadable(ipStr, rec)
	}
}

func printJSON(ip string, rec *model.Allocation) {
	result := struct {
		IP               string `json:"ip"`
		SubnetCidr       string `json:"subnet_cidr"`
		SubnetRole       string `json:"subnet_role"`
		AccountName      string `json:"account_name"`
		VpcName          string `json:"vpc_name"`
		CloudProvider    string `json:"cloud_provider"`
		RegionName       string `json:"region_name"`
		AvailabilityZone string `json:"availability_zone"`
		AzCidr           string `json:"az_cidr"`
		RegionCidr       string `json:"region_cidr"`
		VpcCidr          string `json:"vpc_cidr"`
		UsableIPs        uint64 `json:"usable_ips"`
	}{
		IP:               ip,
		SubnetCidr:       rec.SubnetCidr.String(),
		SubnetRole:       rec.SubnetRole,
		AccountName:      rec.AccountName,
		VpcName:          rec.VpcName,
		CloudProvider:    rec.CloudProvider,
		RegionName:       rec.RegionName,
		AvailabilityZone: rec.AvailabilityZone,
		AzCidr:           rec.AzCidr.String(),
		RegionCidr:       rec.RegionCidr.String(),
		VpcCidr:          rec.VpcCidr.String(),
		UsableIPs:        rec.UsableIPs,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("ERROR: Failed to marshal JSON: %v", err)
	}
	fmt.Println(string(data))
}

func printHumanReadable(ip string, rec *model.Allocation) {
	fmt.Printf("IP Address:         %s\n", ip)
	fmt.Printf("Subnet:             %s (%s)\n", rec.SubnetCidr, rec.SubnetRole)
	fmt.Printf("Account:            %s\n", rec.AccountName)
	fmt.Printf("VPC:                %s (%s)\n", rec.VpcName, rec.VpcCidr)
	fmt.Printf("Cloud Provider:     %s\n", rec.CloudProvider)
	fmt.Printf("Region:             %s (%s)\n", rec.RegionName, rec.RegionCidr)
	fmt.Printf("Availability Zone:  %s (%s)\n", rec.AvailabilityZone, rec.AzCidr)
	fmt.Printf("Usable IPs:         %d\n", rec.UsableIPs)
}
