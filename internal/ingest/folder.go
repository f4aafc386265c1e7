package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// LoadFolder parses every configured measure file found in dir. Files that
// are missing or unreadable are reported as diagnostics.
func (p *Parser) LoadFolder(dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", dir)
	}

	filenames := make([]string, 0, len(p.measureFiles))
	for name := range p.measureFiles {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	res := &Result{Format: FormatMetric}
	for _, name := range filenames {
		fileRes, err := p.loadFile(filepath.Join(dir, name))
		if err != nil {
			reason := err.Error()
			if errors.Is(err, fs.ErrNotExist) {
				reason = "file not found"
			}
			p.skip(res, Diagnostic{File: name, Reason: reason})
			continue
		}
		res.merge(fileRes)
	}

	if p.logger != nil {
		p.logger.Infof("loaded %d observations from %s (%d diagnostics)", len(res.Observations), dir, len(res.Diagnostics))
	}
	return res, nil
}

func (p *Parser) loadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(f, filepath.Base(path))
}
