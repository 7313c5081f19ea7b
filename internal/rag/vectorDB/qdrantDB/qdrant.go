package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	payloadRecordID = "record_id"
	payloadContent  = "content"
	payloadMetadata = "metadata"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var initErr error

type Config struct {
	Host      string
	Port      int
	Dimension uint64
}

// ClientHolder is the Qdrant vector backend. All holders share one client.
type ClientHolder struct {
	QObj      *qdrant.Client
	dimension uint64
	closeOnce sync.Once
}

var _ vectorDB.Backend = (*ClientHolder)(nil)

// GetQdrantClient connects once per process. The client is closed when ctx is done.
func GetQdrantClient(ctx context.Context, cfg Config) (*ClientHolder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		qdrantInstance, initErr = newClient(cfg)
	})
	if initErr != nil {
		return nil, initErr
	}

	holder := &ClientHolder{QObj: qdrantInstance, dimension: cfg.Dimension}
	if holder.dimension == 0 {
		holder.dimension = uint64(config.EmbeddingOutputDimensionality)
	}
	go closeQdrant(ctx, holder)
	return holder, nil
}

func newClient(cfg Config) (*qdrant.Client, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		cfg.Host = config.QdrantHost
		cfg.Port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "host", cfg.Host, "port", cfg.Port, "error", err)
		return nil, err
	}
	logger.Info("Connected to Qdrant", "host", cfg.Host, "port", cfg.Port)
	return client, nil
}

func closeQdrant(ctx context.Context, db *ClientHolder) {
	<-ctx.Done()
	if err := db.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) Close() error {
	var err error
	db.closeOnce.Do(func() {
		logger.Info("Shutting down Qdrant")
		err = db.QObj.Close()
	})
	return err
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, name string, metadata map[string]string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("empty collection name")
	}
	if space, ok := metadata[config.CollectionSpaceKey]; ok && space != config.CollectionSpaceCosine {
		return fmt.Errorf("unsupported distance %q, only cosine", space)
	}

	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return err
	}
	logger.Info("Created collection", "collection", name, "dimension", db.dimension)
	return nil
}

func (db *ClientHolder) Insert(ctx context.Context, collection string, records []vectorDB.Record) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadRecordID: r.ID,
				payloadContent:  r.Content,
				payloadMetadata: map[string]any(r.Metadata),
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", notFound(err, collection))
	}
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, collection string, vector []float32, limit int, withVectors bool) ([]vectorDB.Match, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if limit <= 0 {
		return nil, nil
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVectors),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, notFound(err, collection)
	}

	matches := make([]vectorDB.Match, 0, len(result))
	for _, hit := range result {
		m := vectorDB.Match{
			Record: vectorDB.Record{
				ID:       hit.Payload[payloadRecordID].GetStringValue(),
				Content:  hit.Payload[payloadContent].GetStringValue(),
				Metadata: metadataFromPayload(hit.Payload[payloadMetadata]),
			},
			Distance: 1 - float64(hit.GetScore()),
		}
		if withVectors {
			m.Embedding = denseVector(hit.GetVectors().GetVector())
		}
		matches = append(matches, m)
	}
	loggr.Debug("Found matches", "count", len(matches))
	return matches, nil
}

func (db *ClientHolder) Count(ctx context.Context, collection string) (int, error) {
	n, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, notFound(err, collection)
	}
	return int(n), nil
}

func (db *ClientHolder) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	names, err := db.QObj.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]commonModels.CollectionInfo, 0, len(names))
	for _, name := range names {
		count, err := db.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		info := commonModels.CollectionInfo{Name: name, Count: count, Metadata: map[string]string{}}
		if ci, err := db.QObj.GetCollectionInfo(ctx, name); err == nil {
			distance := ci.GetConfig().GetParams().GetVectorsConfig().GetParams().GetDistance()
			info.Metadata[config.CollectionSpaceKey] = strings.ToLower(distance.String())
		}
		out = append(out, info)
	}
	return out, nil
}

func (db *ClientHolder) DeleteCollection(ctx context.Context, name string) error {
	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", commonModels.ErrCollectionNotFound, name)
	}
	if err := db.QObj.DeleteCollection(ctx, name); err != nil {
		return notFound(err, name)
	}
	logger.Info("Deleted collection", "collection", name)
	return nil
}

// pointID maps a record id onto the UUID space Qdrant requires for string ids.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

func notFound(err error, collection string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s: %v", commonModels.ErrCollectionNotFound, collection, err)
	}
	return err
}

func denseVector(v *qdrant.VectorOutput) []float32 {
	if d := v.GetDense(); d != nil {
		return d.GetData()
	}
	return v.GetData()
}

func metadataFromPayload(v *qdrant.Value) commonModels.Metadata {
	out := commonModels.Metadata{}
	for k, field := range v.GetStructValue().GetFields() {
		switch kind := field.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = kind.BoolValue
		}
	}
	return out
}
