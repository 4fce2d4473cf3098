package bake

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshbake/internal/importer"
	"github.com/Faultbox/meshbake/internal/meta"
)

// DefaultProgressInterval is used when Config.ProgressInterval is unset.
const DefaultProgressInterval = 2 * time.Second

// Config controls a batch run.
type Config struct {
	Workers          int
	Incremental      bool
	ProgressInterval time.Duration
}

// Result holds the outcome of baking one file.
type Result struct {
	Source   string
	Output   string
	Success  bool
	Skipped  bool
	Error    string
	Duration time.Duration
}

// Summary totals a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Discover returns a task for every source file under inputDir that has a
// sidecar and a supported extension. Outputs mirror the input layout
// under outputDir.
func Discover(inputDir, outputDir string) ([]Task, error) {
	var tasks []Task
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, meta.Extension) {
			return nil
		}
		source := strings.TrimSuffix(path, meta.Extension)
		if !importer.Supported(source) {
			return nil
		}
		rel, err := filepath.Rel(inputDir, source)
		if err != nil {
			return err
		}
		tasks = append(tasks, Task{Source: source, Output: filepath.Join(outputDir, rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering sources in %s: %w", inputDir, err)
	}
	return tasks, nil
}

// Run bakes every task on a worker pool. A failing file is logged and
// recorded in its Result; it never stops the batch.
func (b *Baker) Run(cfg Config, tasks []Task) ([]Result, Summary) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	total := len(tasks)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					b.Log.Info("Bake progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("files_per_sec", float64(p)/elapsed))
				}
			}
		}
	}()

	// Worker pool
	taskChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				results[idx] = b.process(cfg, tasks[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range tasks {
		taskChan <- i
	}
	close(taskChan)

	wg.Wait()
	close(done)

	sum := Summary{Total: total, Duration: time.Since(start)}
	for _, r := range results {
		switch {
		case r.Skipped:
			sum.Skipped++
		case r.Success:
			sum.Succeeded++
		default:
			sum.Failed++
		}
	}
	return results, sum
}

func (b *Baker) process(cfg Config, task Task) (res Result) {
	res = Result{Source: task.Source, Output: task.Output}
	start := time.Now()

	if cfg.Incremental && upToDate(task) {
		b.Log.Debug("Skipped up-to-date file", zap.String("file", task.Source))
		res.Skipped = true
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			b.Log.Error("Bake panicked",
				zap.String("file", task.Source),
				zap.Any("panic", r))
			res.Success = false
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.Duration = time.Since(start)
	}()

	if err := b.BakeFile(task); err != nil {
		b.Log.Error("Failed to bake file",
			zap.String("file", task.Source),
			zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// upToDate reports whether the output is newer than the source and its
// sidecar.
func upToDate(task Task) bool {
	out, err := os.Stat(task.Output)
	if err != nil {
		return false
	}
	for _, p := range []string{task.Source, meta.Path(task.Source)} {
		in, err := os.Stat(p)
		if err != nil || !out.ModTime().After(in.ModTime()) {
			return false
		}
	}
	return true
}
