// Package verbatim contains contracts and the batch writer for verbatim
// observation records. Verbatim records are source data after minimal
// transformation, kept in named collections of a store backend.
//
// This package does no I/O by itself, all storage goes through a Backend
// implementation from internal packages.
package verbatim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// MinSplitSize is the largest batch that is abandoned instead of being
// halved when the store reports congestion.
const MinSplitSize = 5

// ShadowSuffix is appended to a collection name to get the name of its
// shadow collection. Harvests write into the shadow collection and promote
// it when they finish successfully.
const ShadowSuffix = "_incremental"

// ErrCongestion marks rate-limit class errors of a store. Such errors are
// recovered by splitting a batch in halves and retrying.
var ErrCongestion = errors.New("store congestion")

// Key is a type of verbatim record identifiers.
type Key interface {
	~int | ~int64 | ~string
}

// Entity is a verbatim record with a local identifier.
type Entity[K Key] interface {
	VerbatimID() K
}

// Modifier is implemented by entities that know when their source record
// was last changed. It drives the harvest watermark.
type Modifier interface {
	LastModified() time.Time
}

// Document is the storage unit of a Backend.
type Document struct {
	// ID is the string form of the entity key.
	ID string
	// Modified is the last modification of the source record, zero if
	// unknown.
	Modified time.Time
	// Body is JSON encoded entity.
	Body []byte
}

// Backend is a store of named document collections.
type Backend interface {
	// CreateCollection creates a collection if it does not exist yet.
	CreateCollection(ctx context.Context, name string) error

	// DropCollection removes a collection. A missing collection is not an
	// error.
	DropCollection(ctx context.Context, name string) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// InsertMany writes documents without ordering guarantees. Documents
	// with existing IDs are overwritten, so a retried batch leaves the
	// collection in the same state.
	InsertMany(ctx context.Context, name string, docs []Document) error

	// Upsert inserts or replaces one document.
	Upsert(ctx context.Context, name string, doc Document) error

	// Delete removes a document by ID.
	Delete(ctx context.Context, name, id string) error

	// DeleteMany removes documents by IDs.
	DeleteMany(ctx context.Context, name string, ids []string) error

	// Get returns a document by its ID. The bool is false if the document
	// is not found.
	Get(ctx context.Context, name, id string) (Document, bool, error)

	// Find returns up to limit documents ordered by ID after skipping
	// skip documents.
	Find(ctx context.Context, name string, skip, limit int) ([]Document, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, name string) (int64, error)

	// Replace makes src the new dst in one step. The old dst is dropped
	// and src does not exist afterwards.
	Replace(ctx context.Context, src, dst string) error

	// Merge upserts every document of src into dst and drops src in one
	// step.
	Merge(ctx context.Context, src, dst string) error
}

// Observer receives notifications about batch splitting.
type Observer interface {
	// BatchSplit is called when a batch of size is split in halves.
	BatchSplit(collection string, size int)
	// BatchAbandoned is called when a batch of size is given up.
	BatchAbandoned(collection string, size int)
}

// IsCongestion checks if an error belongs to the congestion class.
func IsCongestion(err error) bool {
	return errors.Is(err, ErrCongestion)
}

// Congestion wraps err into the congestion class.
func Congestion(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCongestion, err)
}

// ShadowName returns the name of the shadow collection.
func ShadowName(collection string) string {
	return collection + ShadowSuffix
}

// DocID converts a key to the document ID. Integer keys, named integer
// types included, are zero-padded so string order of IDs is their
// numeric order. Negative keys get a "-" prefix and an offset, which
// puts them before non-negative ones in the same order.
func DocID[K Key](k K) string {
	v := reflect.ValueOf(k)
	if v.Kind() == reflect.String {
		return v.String()
	}
	i := v.Int()
	if i >= 0 {
		return fmt.Sprintf("%020d", i)
	}
	return fmt.Sprintf("-%019d", i+math.MaxInt64+1)
}

type noopObserver struct{}

func (noopObserver) BatchSplit(string, int)     {}
func (noopObserver) BatchAbandoned(string, int) {}
