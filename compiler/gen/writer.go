package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
)

// Writer reserves output locations and renders generated files to disk
// with parallel execution.
type Writer struct {
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks emission counters for a run.
type WriterMetrics struct {
	FilesReserved int
	FilesWritten  int
	TotalBytes    int64
}

// NewWriter creates a writer bounded to the given number of workers.
func NewWriter(workers int) *Writer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Writer{
		workers: workers,
		metrics: &WriterMetrics{},
	}
}

// Metrics returns the emission metrics.
func (w *Writer) Metrics() *WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := *w.metrics
	return &m
}

// Reserve creates the output directory and a placeholder file so later
// rounds and other tools observe a stable file identity before content
// exists. An already reserved or generated file is left untouched.
func (w *Writer) Reserve(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewEmitError(path, "create output directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return NewEmitError(path, "reserve output file", err)
	}
	if err := f.Close(); err != nil {
		return NewEmitError(path, "reserve output file", err)
	}
	w.mu.Lock()
	w.metrics.FilesReserved++
	w.mu.Unlock()
	return nil
}

// WriteFile renders a single generated file to disk. Rendering happens
// fully in memory first, so a file is never left partially written by a
// render failure.
func (w *Writer) WriteFile(path string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewEmitError(path, "render", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewEmitError(path, "create output directory", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return NewEmitError(path, "write", err)
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(buf.Len())
	w.mu.Unlock()
	return nil
}

// WriteAll renders all files in parallel. The task order is made
// deterministic before fan-out so failures are stable across runs.
func (w *Writer) WriteAll(ctx context.Context, tasks map[string]*jen.File) error {
	paths := make([]string, 0, len(tasks))
	for path := range tasks {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.WriteFile(path, tasks[path])
			}
		})
	}
	return eg.Wait()
}
