package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// FileLifecycle tracks which files in the input directory still need processing.
// Processed files live in the completed subdirectory.
type FileLifecycle struct {
	inputDir     string
	completedDir string
	registry     *LoaderRegistry
	reprocess    atomic.Bool
	locks        sync.Map
	logger       *logger_i.Logger
}

func NewFileLifecycle(inputDir string, registry *LoaderRegistry, reprocessCompleted bool) (*FileLifecycle, error) {
	completed := filepath.Join(inputDir, config.CompletedDirName)
	if err := os.MkdirAll(completed, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", completed, err)
	}
	f := &FileLifecycle{
		inputDir:     inputDir,
		completedDir: completed,
		registry:     registry,
		logger:       logger_i.NewLogger("File Lifecycle"),
	}
	f.reprocess.Store(reprocessCompleted)
	return f, nil
}

// DisableRecovery stops Discover from moving completed files back. Watch mode needs this,
// otherwise every run would recreate files in the watched directory.
func (f *FileLifecycle) DisableRecovery() { f.reprocess.Store(false) }

func (f *FileLifecycle) InputDir() string { return f.inputDir }
func (f *FileLifecycle) CompletedDir() string { return f.completedDir }

// Discover returns the supported files waiting in the input directory, ordered by name.
// Files found in completed are moved back first so they are processed again.
func (f *FileLifecycle) Discover() ([]string, error) {
	if f.reprocess.Load() {
		f.recoverCompleted()
	}

	files, err := f.list(f.inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", f.inputDir, err)
	}
	f.logger.Debug("Discovered files", "count", len(files), "dir", f.inputDir)
	return files, nil
}

// Pending is Discover without moving anything: completed files are listed in place when
// recovery is on. Used by dry runs.
func (f *FileLifecycle) Pending() ([]string, error) {
	files, err := f.list(f.inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", f.inputDir, err)
	}
	if !f.reprocess.Load() {
		return files, nil
	}
	completed, err := f.list(f.completedDir)
	if err != nil {
		f.logger.Warn("Could not read completed directory", "dir", f.completedDir, "error", err)
		return files, nil
	}
	return append(files, completed...), nil
}

func (f *FileLifecycle) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !f.registry.Supports(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// MarkCompleted moves path into the completed directory.
func (f *FileLifecycle) MarkCompleted(path string) error {
	unlock := f.lock(path)
	defer unlock()

	dest := filepath.Join(f.completedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		f.logger.Error("Could not move file to completed", "path", path, "error", err)
		return err
	}
	f.logger.Info("Moved file to completed", "path", path)
	return nil
}

func (f *FileLifecycle) recoverCompleted() {
	entries, err := os.ReadDir(f.completedDir)
	if err != nil {
		f.logger.Warn("Could not read completed directory", "dir", f.completedDir, "error", err)
		return
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !f.registry.Supports(e.Name()) {
			continue
		}
		src := filepath.Join(f.completedDir, e.Name())
		dest := filepath.Join(f.inputDir, e.Name())

		unlock := f.lock(dest)
		err := os.Rename(src, dest)
		unlock()
		if err != nil {
			f.logger.Error("Could not move completed file back", "path", src, "error", err)
			continue
		}
		f.logger.Info("Moved completed file back for processing", "path", dest)
	}
}

func (f *FileLifecycle) lock(path string) func() {
	m, _ := f.locks.LoadOrStore(filepath.Base(path), &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
