package refresh

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/controlchart/internal/ingest"
	"github.com/chrissnell/controlchart/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProcessor() *processor.Processor {
	parser := ingest.NewParser(map[string]string{"delays.csv": "Delays"}, nil, nil)
	return processor.New(parser, processor.Options{RoundDecimals: 2}, nil)
}

func writeDelays(t *testing.T, dir string, values ...string) {
	t.Helper()
	content := "timestamp,station,metric_value\n"
	for i, v := range values {
		content += time.Date(2025, 4, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02") + ",AUS," + v + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delays.csv"), []byte(content), 0o644))
}

func TestNewControllerDisabled(t *testing.T) {
	c := NewController(context.Background(), &sync.WaitGroup{}, newProcessor(), t.TempDir(), 0, zap.NewNop().Sugar())
	assert.Nil(t, c)
}

func TestRefresh(t *testing.T) {
	dir := t.TempDir()
	c := NewController(context.Background(), &sync.WaitGroup{}, newProcessor(), dir, time.Hour, zap.NewNop().Sugar())
	require.NotNil(t, c)

	_, _, err := c.Latest()
	assert.ErrorIs(t, err, ErrNotLoaded)

	// empty folder: no valid data
	assert.ErrorIs(t, c.Refresh(), processor.ErrNoValidData)
	_, _, err = c.Latest()
	assert.ErrorIs(t, err, processor.ErrNoValidData)

	writeDelays(t, dir, "2", "4")
	require.NoError(t, c.Refresh())
	res, loadedAt, err := c.Latest()
	require.NoError(t, err)
	assert.False(t, loadedAt.IsZero())
	s, ok := res.Series("AUS", "Delays")
	require.True(t, ok)
	assert.Equal(t, 3.0, s.Phases[0].CL)

	// a failed refresh keeps the last good result
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delays.csv"), []byte("nonsense\n"), 0o644))
	assert.Error(t, c.Refresh())
	res2, _, err := c.Latest()
	require.NoError(t, err)
	assert.Equal(t, res.RunID, res2.RunID)
}

func TestStartAndStop(t *testing.T) {
	dir := t.TempDir()
	writeDelays(t, dir, "1", "2", "3")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	c := NewController(ctx, &wg, newProcessor(), dir, time.Hour, zap.NewNop().Sugar())
	c.StartController()

	require.Eventually(t, func() bool {
		_, _, err := c.Latest()
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	c.Stop()
	c.Stop()
	wg.Wait()
}
