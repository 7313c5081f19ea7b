package vectorDB

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

// Backend is the persistence engine under the Store. Implementations return
// commonModels.ErrCollectionNotFound (wrapped) when a named collection does not exist.
type Backend interface {
	// EnsureCollection creates the collection when missing. Existing metadata is kept.
	EnsureCollection(ctx context.Context, name string, metadata map[string]string) error
	Insert(ctx context.Context, collection string, records []Record) error
	// Search returns up to limit records ordered by ascending cosine distance.
	Search(ctx context.Context, collection string, vector []float32, limit int, withVectors bool) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
	ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error
	Close() error
}

type Record struct {
	ID        string                `json:"id"`
	Content   string                `json:"content"`
	Metadata  commonModels.Metadata `json:"metadata"`
	Embedding []float32             `json:"embedding"`
}

type Match struct {
	Record
	Distance float64
}

// Field selects what a query returns besides ids and similarity.
type Field int

const (
	FieldDocuments Field = iota
	FieldMetadatas
	FieldEmbeddings
)

var defaultFields = []Field{FieldDocuments, FieldMetadatas}

// CosineDistance is 1 - cos(a, b). Mismatched or zero vectors are at distance 1.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// SanitizeMetadata keeps scalar values the backends can store. Integers become int64,
// floats float64, nil is dropped and anything else is stringified.
func SanitizeMetadata(m commonModels.Metadata) commonModels.Metadata {
	out := make(commonModels.Metadata, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case string, bool, int64, float64:
			out[k] = val
		case int:
			out[k] = int64(val)
		case int8:
			out[k] = int64(val)
		case int16:
			out[k] = int64(val)
		case int32:
			out[k] = int64(val)
		case uint:
			out[k] = unsignedValue(uint64(val))
		case uint8:
			out[k] = int64(val)
		case uint16:
			out[k] = int64(val)
		case uint32:
			out[k] = int64(val)
		case uint64:
			out[k] = unsignedValue(val)
		case float32:
			out[k] = float64(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// unsignedValue keeps v as an integer when it fits in int64 and stringifies it otherwise.
func unsignedValue(v uint64) any {
	if v > math.MaxInt64 {
		return strconv.FormatUint(v, 10)
	}
	return int64(v)
}

func hasField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
