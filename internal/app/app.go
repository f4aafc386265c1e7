package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/controlchart/internal/controllers/refresh"
	"github.com/chrissnell/controlchart/internal/controllers/restserver"
	"github.com/chrissnell/controlchart/internal/demo"
	"github.com/chrissnell/controlchart/internal/ingest"
	"github.com/chrissnell/controlchart/internal/log"
	"github.com/chrissnell/controlchart/internal/processor"
	"github.com/chrissnell/controlchart/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	cfg       *config.ConfigData
	processor *processor.Processor
	logger    *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	cfg.ApplyDefaults()

	parser := ingest.NewParser(cfg.Input.MeasureFiles, cfg.Input.StationAliases, logger)
	proc := processor.New(parser, processor.Options{
		Workers:       cfg.Processing.Workers,
		RoundDecimals: *cfg.Processing.RoundDecimals,
		MovingRange:   *cfg.Processing.MovingRangeCharts,
	}, logger)

	return &App{
		cfg:       cfg,
		processor: proc,
		logger:    logger,
	}
}

// Run starts the REST server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps := restserver.Deps{
		Processor:   a.processor,
		InputFolder: a.cfg.Input.Folder,
		DemoSeed:    a.cfg.Processing.DemoSeed,
	}

	if rc := refresh.NewController(ctx, &wg, a.processor, a.cfg.Input.Folder, a.cfg.Input.RefreshInterval, a.logger); rc != nil {
		rc.StartController()
		deps.Actual = rc
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.cfg.Server, deps, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Infow("Application started successfully", "addr", ctrl.Server.Addr, "refresh", deps.Actual != nil)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for all controllers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// ProcessFile processes a single CSV file and writes the result to w as JSON
func (a *App) ProcessFile(ctx context.Context, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.processor.ProcessCSV(ctx, f, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("processing %s: %w", path, err)
	}
	return writeJSON(w, res)
}

// Demo generates demo data ending today, processes it and writes the result
// to w as JSON
func (a *App) Demo(ctx context.Context, w io.Writer) error {
	seed := a.cfg.Processing.DemoSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	data, err := demo.NewGenerator(seed).CSV(time.Now())
	if err != nil {
		return fmt.Errorf("generating demo data: %w", err)
	}

	res, err := a.processor.ProcessCSV(ctx, bytes.NewReader(data), "demo.csv")
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
