package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

const unknownSource = "Unknown source"

// formatContext renders retrieved chunks as the block handed to the model, and the
// source labels shown to the user.
func formatContext(results []commonModels.QueryResult) (string, []string) {
	blocks := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for i, r := range results {
		label := sourceLabel(r.Metadata)
		sources = append(sources, label)
		blocks = append(blocks, fmt.Sprintf("Document %d:\nSource: %s\n%s\nRelevance Score: %.2f%%",
			i+1, label, r.Content, r.Similarity*100))
	}
	header := fmt.Sprintf("RAG Context (showing top %d relevant documents):", len(results))
	return header + "\n\n" + strings.Join(blocks, "\n\n"), sources
}

func sourceLabel(meta commonModels.Metadata) string {
	source := meta.String(commonModels.MetaSource)
	if source == "" {
		source = unknownSource
	}
	if page, ok := meta.Int(commonModels.MetaPage); ok {
		return fmt.Sprintf("%s (Page %d)", source, page)
	}
	return source
}

func composePrompt(question, ragContext, webpage string) string {
	prompt := question
	if webpage != "" {
		prompt = fmt.Sprintf("Context from webpage:\n%s...\n\nUser question: %s\n\nPlease provide a response based on the webpage content above.",
			truncateRunes(webpage, config.WebpageContextLimit), question)
	}
	if ragContext != "" {
		prompt = ragContext + "\n\n" + prompt
	}
	return prompt
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
