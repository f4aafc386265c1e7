// Package refresh provides a controller that periodically reprocesses the
// actual-data folder and keeps the latest result in memory. It runs
// independently of the REST server, which serves the cached result.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chrissnell/controlchart/internal/processor"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned by Latest before the first successful refresh
var ErrNotLoaded = errors.New("actual data has not been loaded yet")

// Controller manages the folder refresh lifecycle
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	processor *processor.Processor
	folder    string
	interval  time.Duration
	logger    *zap.SugaredLogger
	stopChan  chan struct{}
	stopOnce  sync.Once

	mu        sync.RWMutex
	latest    *processor.Result
	loadedAt  time.Time
	lastError error
}

// NewController creates a new refresh controller.
// Returns nil if interval is not positive (refresh disabled).
func NewController(
	ctx context.Context,
	wg *sync.WaitGroup,
	proc *processor.Processor,
	folder string,
	interval time.Duration,
	logger *zap.SugaredLogger,
) *Controller {
	if interval <= 0 {
		logger.Debug("input.refresh_interval not set; folder refresh controller will not be created")
		return nil
	}

	return &Controller{
		ctx:       ctx,
		wg:        wg,
		processor: proc,
		folder:    folder,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// StartController runs the refresh loop in the background
func (c *Controller) StartController() {
	c.logger.Infof("Starting folder refresh for %s every %s", c.folder, c.interval)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		c.run()
	}()
}

func (c *Controller) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Folder refresh stopped (context cancelled)")
			return
		case <-c.stopChan:
			c.logger.Info("Folder refresh stopped (stop requested)")
			return
		case <-ticker.C:
			c.Refresh()
		}
	}
}

// Refresh reprocesses the folder once. A failed refresh keeps the previous
// result.
func (c *Controller) Refresh() error {
	res, err := c.processor.ProcessFolder(c.ctx, c.folder)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = err
	if err != nil {
		c.logger.Errorf("Folder refresh failed: %v", err)
		return err
	}
	c.latest = res
	c.loadedAt = time.Now()
	c.logger.Debugf("Folder refresh complete: %d points, run %s", res.TotalPoints, res.RunID)
	return nil
}

// Latest returns the most recent successful result and when it was loaded
func (c *Controller) Latest() (*processor.Result, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil {
		if c.lastError != nil {
			return nil, time.Time{}, c.lastError
		}
		return nil, time.Time{}, ErrNotLoaded
	}
	return c.latest, c.loadedAt, nil
}

// Stop gracefully stops the controller
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping folder refresh controller...")
		close(c.stopChan)
	})
}
