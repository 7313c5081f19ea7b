package ingest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var errPageTimeout = errors.New("page extraction timed out")

// extractPDF returns one document per page; pages that cannot be read are skipped.
func extractPDF(path string, log *logger_i.Logger) ([]commonModels.Document, error) {
	log.Debug("extractPDF", "path", path)
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %v", commonModels.ErrExtractionFailure, path, err)
	}

	var pages []commonModels.Document
	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "null page", i)
			continue
		}

		content, err := protectExtract(page, config.PageExtractTimeout)
		if err != nil {
			log.Warn("Error parsing page content", "path", path, "page", i, "error", err)
			continue
		}

		pages = append(pages, commonModels.Document{
			Content:  content,
			Metadata: commonModels.Metadata{commonModels.MetaPage: i},
		})
	}
	return pages, nil
}

// extractWord reads .doc and .docx files. Word has no stable page boundaries so the
// whole file is one document.
func extractWord(path string) ([]commonModels.Document, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", commonModels.ErrExtractionFailure, path, err)
	}
	return []commonModels.Document{{Content: text, Metadata: commonModels.Metadata{}}}, nil
}

func extractText(path string) ([]commonModels.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", commonModels.ErrExtractionFailure, path, err)
	}
	return []commonModels.Document{{Content: string(data), Metadata: commonModels.Metadata{}}}, nil
}

func protectExtract(page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(timeout):
		return "", errPageTimeout
	}
}
