package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chrissnell/controlchart/internal/app"
	"github.com/chrissnell/controlchart/internal/constants"
	"github.com/chrissnell/controlchart/internal/log"
	"github.com/chrissnell/controlchart/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	input := flag.String("input", "", "Process a single CSV file, print the result as JSON and exit")
	runDemo := flag.Bool("demo", false, "Process generated demo data, print the result as JSON and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", constants.ServiceName, constants.Version)
		os.Exit(0)
	}

	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(log.Options{
		Debug:      *debug || cfgData.Logging.Debug,
		File:       cfgData.Logging.File,
		MaxSizeMB:  cfgData.Logging.MaxSizeMB,
		MaxBackups: cfgData.Logging.MaxBackups,
		MaxAgeDays: cfgData.Logging.MaxAgeDays,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application := app.New(cfgData, log.GetSugaredLogger())
	ctx := context.Background()

	switch {
	case *input != "":
		err = application.ProcessFile(ctx, *input, os.Stdout)
	case *runDemo:
		err = application.Demo(ctx, os.Stdout)
	default:
		err = application.Run(ctx)
	}
	if err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		if _, statErr := os.Stat(filename); errors.Is(statErr, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "%s not found; using default configuration\n", filename)
			return config.Default(), nil
		}
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}
