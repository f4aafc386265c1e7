package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/chrissnell/controlchart/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	configData, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
		printConfigSummary(configData)
		return
	}

	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := convert(*sqliteFile, configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing SQLite configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func convert(dbPath string, configData *config.ConfigData) error {
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	return config.Save(provider, configData)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Printf("\nConfiguration Summary:\n")
	fmt.Printf("  Server: %s:%d (max upload %d bytes)\n",
		configData.Server.ListenAddr, configData.Server.Port, configData.Server.MaxUploadBytes)
	fmt.Printf("  Input folder: %s\n", configData.Input.Folder)

	fmt.Printf("  Measure files (%d):\n", len(configData.Input.MeasureFiles))
	for _, name := range sortedKeys(configData.Input.MeasureFiles) {
		fmt.Printf("    - %s -> %s\n", name, configData.Input.MeasureFiles[name])
	}

	fmt.Printf("  Station aliases (%d):\n", len(configData.Input.StationAliases))
	for _, name := range sortedKeys(configData.Input.StationAliases) {
		fmt.Printf("    - %s -> %s\n", name, configData.Input.StationAliases[name])
	}

	fmt.Printf("  Rounding: %d decimals, moving range charts: %t\n",
		*configData.Processing.RoundDecimals, *configData.Processing.MovingRangeCharts)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
