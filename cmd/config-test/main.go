package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/lunarmansion/pkg/config"
	"github.com/google/go-cmp/cmp"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	// Compare effective configurations so an explicit default equals an omitted one
	config.ApplyDefaults(yamlConfig)
	config.ApplyDefaults(sqliteConfig)

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	sections := []struct {
		name         string
		yaml, sqlite any
	}{
		{"Engine", yamlConfig.Engine, sqliteConfig.Engine},
		{"Cache", yamlConfig.Cache, sqliteConfig.Cache},
		{"Server", yamlConfig.Server, sqliteConfig.Server},
		{"Conversion timeout", yamlConfig.ConversionTimeout, sqliteConfig.ConversionTimeout},
	}

	mismatches := 0
	for _, s := range sections {
		if diff := cmp.Diff(s.yaml, s.sqlite); diff != "" {
			mismatches++
			fmt.Printf("✗ %s differs (-yaml +sqlite):\n%s\n", s.name, diff)
			continue
		}
		fmt.Printf("✓ %s matches\n", s.name)
	}

	if mismatches > 0 {
		fmt.Printf("\n%d section(s) differ\n", mismatches)
		os.Exit(1)
	}
	fmt.Println("\nConfigurations are equivalent")
}
