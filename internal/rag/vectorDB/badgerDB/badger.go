// Package badgerDB is the embedded vector backend. Collections and records are JSON values in
// one badger database on disk; search is an exact cosine scan over the collection.
package badgerDB

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/dgraph-io/badger/v4"
)

const (
	collectionPrefix = "col\x00"
	recordPrefix     = "rec\x00"
)

type DB struct {
	db     *badger.DB
	path   string
	logger *logger_i.Logger
}

// storedRecord is the value of a record key. JSON writes 2.0 as 2, so the keys holding
// floats are listed to decode them back as float64.
type storedRecord struct {
	vectorDB.Record
	FloatKeys []string `json:"float_keys,omitempty"`
}

type collectionMeta struct {
	Name      string            `json:"name"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

var _ vectorDB.Backend = (*DB)(nil)

// Open creates path when needed and opens the database in it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", path, err)
	}
	l := logger_i.NewLogger("Badger")
	l.Info("Opened vector database", "path", path)
	return &DB{db: db, path: path, logger: l}, nil
}

// OpenInMemory is for tests and dry runs; nothing touches the disk.
func OpenInMemory() (*DB, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &DB{db: db, logger: logger_i.NewLogger("Badger")}, nil
}

func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	d.logger.Info("Closing vector database")
	return d.db.Close()
}

func (d *DB) EnsureCollection(ctx context.Context, name string, metadata map[string]string) error {
	if err := validName(name); err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(metaKey(name))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := json.Marshal(collectionMeta{Name: name, Metadata: metadata, CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		d.logger.Info("Created collection", "collection", name)
		return txn.Set(metaKey(name), data)
	})
}

func (d *DB) Insert(ctx context.Context, collection string, records []vectorDB.Record) error {
	if err := d.requireCollection(collection); err != nil {
		return err
	}

	wb := d.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range records {
		data, err := json.Marshal(encodeRecord(r))
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", r.ID, err)
		}
		if err := wb.Set(recordKey(collection, r.ID), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (d *DB) Search(ctx context.Context, collection string, vector []float32, limit int, withVectors bool) ([]vectorDB.Match, error) {
	if err := d.requireCollection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	var matches []vectorDB.Match
	err := d.scan(collection, true, func(val []byte) error {
		var r vectorDB.Record
		if err := decodeRecord(val, &r); err != nil {
			return err
		}
		m := vectorDB.Match{Record: r, Distance: vectorDB.CosineDistance(vector, r.Embedding)}
		if !withVectors {
			m.Embedding = nil
		}
		matches = append(matches, m)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (d *DB) Count(ctx context.Context, collection string) (int, error) {
	if err := d.requireCollection(collection); err != nil {
		return 0, err
	}
	n := 0
	err := d.scan(collection, false, func([]byte) error {
		n++
		return nil
	})
	return n, err
}

func (d *DB) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	var metas []collectionMeta
	err := d.db.View(func(txn *badger.Txn) error {
		prefix := []byte(collectionPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m collectionMeta
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &m) }); err != nil {
				return err
			}
			metas = append(metas, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]commonModels.CollectionInfo, 0, len(metas))
	for _, m := range metas {
		count, err := d.Count(ctx, m.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, commonModels.CollectionInfo{Name: m.Name, Metadata: m.Metadata, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *DB) DeleteCollection(ctx context.Context, name string) error {
	if err := d.requireCollection(name); err != nil {
		return err
	}
	if err := d.db.Update(func(txn *badger.Txn) error { return txn.Delete(metaKey(name)) }); err != nil {
		return err
	}
	if err := d.db.DropPrefix(recordsPrefix(name)); err != nil {
		return fmt.Errorf("dropping records of %s: %w", name, err)
	}
	d.logger.Info("Deleted collection", "collection", name)
	return nil
}

func (d *DB) requireCollection(name string) error {
	return d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(metaKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", commonModels.ErrCollectionNotFound, name)
		}
		return err
	})
}

// scan calls fn with the value of every record in collection. Values are only loaded
// when withValues is set; otherwise fn gets nil.
func (d *DB) scan(collection string, withValues bool, fn func(val []byte) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = withValues
		prefix := recordsPrefix(collection)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if !withValues {
				if err := fn(nil); err != nil {
					return err
				}
				continue
			}
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeRecord(r vectorDB.Record) storedRecord {
	sr := storedRecord{Record: r}
	for k, v := range r.Metadata {
		switch v.(type) {
		case float64, float32:
			sr.FloatKeys = append(sr.FloatKeys, k)
		}
	}
	sort.Strings(sr.FloatKeys)
	return sr
}

func decodeRecord(val []byte, r *vectorDB.Record) error {
	var sr storedRecord
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&sr); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	floats := make(map[string]bool, len(sr.FloatKeys))
	for _, k := range sr.FloatKeys {
		floats[k] = true
	}
	for k, v := range sr.Metadata {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if !floats[k] {
			if i, err := n.Int64(); err == nil {
				sr.Metadata[k] = i
				continue
			}
		}
		if f, err := n.Float64(); err == nil {
			sr.Metadata[k] = f
		} else {
			sr.Metadata[k] = n.String()
		}
	}
	*r = sr.Record
	return nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

func metaKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

func recordsPrefix(collection string) []byte {
	return []byte(recordPrefix + collection + "\x00")
}

func recordKey(collection, id string) []byte {
	return []byte(recordPrefix + collection + "\x00" + id)
}
