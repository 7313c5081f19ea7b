package ingest

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

// DocumentMetadata decorates a freshly loaded document. Loader-provided keys such as page are kept.
func DocumentMetadata(doc commonModels.Document, path string, now time.Time) commonModels.Metadata {
	meta := doc.Metadata.Clone()
	meta[commonModels.MetaSource] = path
	meta[commonModels.MetaDocType] = string(getDocType(path))
	meta[commonModels.MetaCreatedAt] = now.Format(time.RFC3339)
	meta[commonModels.MetaTotalChars] = utf8.RuneCountInString(doc.Content)
	meta[commonModels.MetaLanguage] = config.DocumentLanguage
	return meta
}

// EnrichChunk builds the stored chunk for span number index of total.
func EnrichChunk(docMeta commonModels.Metadata, sp TextSpan, index, total int, now time.Time) commonModels.Chunk {
	meta := docMeta.Clone()
	meta[commonModels.MetaChunkIndex] = index
	meta[commonModels.MetaTotalChunks] = total
	meta[commonModels.MetaChunkSize] = utf8.RuneCountInString(sp.Content)
	meta[commonModels.MetaSourceDocument] = docMeta.String(commonModels.MetaSource)
	meta[commonModels.MetaSection] = DetectSection(sp.Content)
	meta[commonModels.MetaCreatedAt] = now.Format(time.RFC3339)
	meta[commonModels.MetaContentType] = commonModels.TextContentType
	meta[commonModels.MetaStartIndex] = sp.Start

	return commonModels.Chunk{Content: sp.Content, Metadata: meta}
}

// DetectSection returns the first "##" header line of content without its markers.
func DetectSection(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "##") {
			if title := strings.TrimSpace(strings.Trim(line, "# ")); title != "" {
				return title
			}
		}
	}
	return commonModels.UnknownSection
}

func getDocType(docPath string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx":
		return commonModels.DOCX
	case ".doc":
		return commonModels.DOC
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}
