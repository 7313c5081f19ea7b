package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// LoaderFunc extracts raw documents from one file.
type LoaderFunc func(path string) ([]commonModels.Document, error)

// LoaderRegistry maps a lower-cased extension (with dot) to its loader.
type LoaderRegistry struct {
	loaders map[string]LoaderFunc
	logger  *logger_i.Logger
}

func NewLoaderRegistry() *LoaderRegistry {
	r := &LoaderRegistry{
		loaders: make(map[string]LoaderFunc),
		logger:  logger_i.NewLogger("Loaders"),
	}
	r.Register(".txt", extractText)
	r.Register(".doc", extractWord)
	r.Register(".docx", extractWord)
	r.Register(".pdf", func(path string) ([]commonModels.Document, error) {
		return extractPDF(path, r.logger)
	})
	return r
}

func (r *LoaderRegistry) Register(ext string, fn LoaderFunc) {
	r.loaders[normalizeExt(ext)] = fn
}

func (r *LoaderRegistry) Supports(path string) bool {
	_, ok := r.loaders[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extensions lists the registered extensions in sorted order.
func (r *LoaderRegistry) Extensions() []string {
	out := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *LoaderRegistry) Load(path string) ([]commonModels.Document, error) {
	ext := normalizeExt(filepath.Ext(path))
	fn, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", commonModels.ErrUnsupportedFormat, ext, path)
	}
	return fn(path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
