package commonModels

import (
	"fmt"
	"strconv"
)

// metadata keys shared by the loaders, the enricher and the retrieval side
const (
	MetaSource         = "source"
	MetaDocType        = "doc_type"
	MetaCreatedAt      = "created_at"
	MetaTotalChars     = "total_chars"
	MetaLanguage       = "language"
	MetaPage           = "page"
	MetaChunkIndex     = "chunk_index"
	MetaTotalChunks    = "total_chunks"
	MetaChunkSize      = "chunk_size"
	MetaSourceDocument = "source_document"
	MetaSection        = "section"
	MetaContentType    = "content_type"
	MetaStartIndex     = "start_index"

	UnknownSection  = "unknown"
	TextContentType = "text"
)

type DocType string

var PDF DocType = "pdf"
var DOCX DocType = "docx"
var DOC DocType = "doc"
var TXT DocType = "txt"
var ERR DocType = "unknown"

// Metadata holds scalar attributes of documents and chunks.
type Metadata map[string]any

type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type QueryResult struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Similarity float64   `json:"similarity"`
}

type CollectionInfo struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
	Count    int               `json:"count"`
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
