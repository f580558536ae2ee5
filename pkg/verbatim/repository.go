package verbatim

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/gnames/gnfmt"
)

// DefaultBatchSize is used when OptBatchSize is not given.
const DefaultBatchSize = 10_000

// Repository writes and reads verbatim entities of one collection.
//
// Store errors are logged and converted to boolean results, they never
// leave the repository. Mode switching is not safe for concurrent use,
// one harvest owns a repository at a time.
type Repository[E Entity[K], K Key] struct {
	backend     Backend
	collection  string
	batchSize   int
	splitJobs   int
	observer    Observer
	incremental bool
	enc         gnfmt.GNjson
}

type settings struct {
	batchSize int
	splitJobs int
	observer  Observer
}

// RepoOption changes settings of a Repository.
type RepoOption func(*settings)

// OptBatchSize sets the number of entities in one write and the page size
// of reads.
func OptBatchSize(i int) RepoOption {
	return func(s *settings) {
		if i > 0 {
			s.batchSize = i
		}
	}
}

// OptSplitJobs sets how many halves of congested batches are written
// concurrently.
func OptSplitJobs(i int) RepoOption {
	return func(s *settings) {
		if i > 0 {
			s.splitJobs = i
		}
	}
}

// OptObserver sets a receiver of batch splitting events.
func OptObserver(o Observer) RepoOption {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewRepository creates a repository for a collection. It panics if
// backend is nil or collection is empty.
func NewRepository[E Entity[K], K Key](
	backend Backend,
	collection string,
	opts ...RepoOption,
) *Repository[E, K] {
	if backend == nil {
		panic("verbatim: nil backend")
	}
	if collection == "" {
		panic("verbatim: empty collection name")
	}
	s := settings{
		batchSize: DefaultBatchSize,
		splitJobs: runtime.NumCPU(),
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Repository[E, K]{
		backend:    backend,
		collection: collection,
		batchSize:  s.batchSize,
		splitJobs:  s.splitJobs,
		observer:   s.observer,
	}
}

// BatchSize returns the number of entities per write.
func (r *Repository[E, K]) BatchSize() int {
	return r.batchSize
}

// SetIncrementalMode switches all operations to the shadow collection.
func (r *Repository[E, K]) SetIncrementalMode(b bool) {
	r.incremental = b
}

// IncrementalMode reports if the shadow collection is the current target.
func (r *Repository[E, K]) IncrementalMode() bool {
	return r.incremental
}

// PermanentName returns the canonical collection name.
func (r *Repository[E, K]) PermanentName() string {
	return r.collection
}

// CollectionName returns the name of the current target collection.
func (r *Repository[E, K]) CollectionName() string {
	if r.incremental {
		return ShadowName(r.collection)
	}
	return r.collection
}

// AddMany writes items in batches of the repository batch size. Batches
// are written one after another. A failed batch does not stop the rest
// and nothing is rolled back.
func (r *Repository[E, K]) AddMany(ctx context.Context, items []E) Outcome {
	if len(items) == 0 {
		return OutcomeEmpty
	}

	res := OutcomeWritten
	for start := 0; start < len(items); start += r.batchSize {
		if ctx.Err() != nil {
			return OutcomeFailed
		}
		end := min(start+r.batchSize, len(items))
		if !r.AddBatch(ctx, items[start:end]) {
			res = OutcomeFailed
		}
	}
	return res
}

// AddBatch writes a batch. If the store is congested the batch is halved
// until parts are written or become too small to split.
func (r *Repository[E, K]) AddBatch(ctx context.Context, batch []E) bool {
	if len(batch) == 0 {
		return false
	}
	docs, err := r.toDocuments(batch)
	if err != nil {
		slog.Error("Cannot encode verbatim batch",
			"collection", r.CollectionName(), "error", err)
		return false
	}
	return r.writeDocs(ctx, r.CollectionName(), docs)
}

// Add writes one entity.
func (r *Repository[E, K]) Add(ctx context.Context, item E) bool {
	return r.AddBatch(ctx, []E{item})
}

// Update replaces an entity with the same ID or inserts a new one.
func (r *Repository[E, K]) Update(ctx context.Context, item E) bool {
	doc, err := r.toDocument(item)
	if err != nil {
		slog.Error("Cannot encode verbatim entity",
			"collection", r.CollectionName(), "error", err)
		return false
	}
	err = r.backend.Upsert(ctx, r.CollectionName(), doc)
	if err != nil {
		slog.Error("Cannot update verbatim entity",
			"collection", r.CollectionName(), "id", doc.ID, "error", err)
		return false
	}
	return true
}

// Delete removes an entity by its ID.
func (r *Repository[E, K]) Delete(ctx context.Context, id K) bool {
	err := r.backend.Delete(ctx, r.CollectionName(), DocID(id))
	if err != nil {
		slog.Error("Cannot delete verbatim entity",
			"collection", r.CollectionName(), "id", id, "error", err)
		return false
	}
	return true
}

// DeleteMany removes entities by their IDs.
func (r *Repository[E, K]) DeleteMany(ctx context.Context, ids []K) bool {
	if len(ids) == 0 {
		return true
	}
	docIDs := make([]string, len(ids))
	for i := range ids {
		docIDs[i] = DocID(ids[i])
	}
	err := r.backend.DeleteMany(ctx, r.CollectionName(), docIDs)
	if err != nil {
		slog.Error("Cannot delete verbatim entities",
			"collection", r.CollectionName(), "count", len(ids), "error", err)
		return false
	}
	return true
}

// Get returns an entity by its ID.
func (r *Repository[E, K]) Get(ctx context.Context, id K) (E, bool) {
	var res E
	doc, ok, err := r.backend.Get(ctx, r.CollectionName(), DocID(id))
	if err != nil {
		slog.Error("Cannot get verbatim entity",
			"collection", r.CollectionName(), "id", id, "error", err)
		return res, false
	}
	if !ok {
		return res, false
	}
	if err = r.enc.Decode(doc.Body, &res); err != nil {
		slog.Error("Cannot decode verbatim entity",
			"collection", r.CollectionName(), "id", id, "error", err)
		return res, false
	}
	return res, true
}

// AddCollection creates the current collection if it is missing.
func (r *Repository[E, K]) AddCollection(ctx context.Context) bool {
	err := r.backend.CreateCollection(ctx, r.CollectionName())
	if err != nil {
		slog.Error("Cannot create collection",
			"collection", r.CollectionName(), "error", err)
		return false
	}
	return true
}

// DeleteCollection removes the current collection. Removing a missing
// collection succeeds.
func (r *Repository[E, K]) DeleteCollection(ctx context.Context) bool {
	err := r.backend.DropCollection(ctx, r.CollectionName())
	if err != nil {
		slog.Error("Cannot delete collection",
			"collection", r.CollectionName(), "error", err)
		return false
	}
	return true
}

// CheckIfCollectionExists reports if the current collection exists.
func (r *Repository[E, K]) CheckIfCollectionExists(ctx context.Context) bool {
	ok, err := r.backend.CollectionExists(ctx, r.CollectionName())
	if err != nil {
		slog.Error("Cannot check collection",
			"collection", r.CollectionName(), "error", err)
		return false
	}
	return ok
}

// Count returns the number of entities in the current collection, or -1
// if the store fails.
func (r *Repository[E, K]) Count(ctx context.Context) int64 {
	res, err := r.backend.Count(ctx, r.CollectionName())
	if err != nil {
		slog.Error("Cannot count collection",
			"collection", r.CollectionName(), "error", err)
		return -1
	}
	return res
}

// ClearCollection drops and recreates the current collection.
func (r *Repository[E, K]) ClearCollection(ctx context.Context) bool {
	return r.DeleteCollection(ctx) && r.AddCollection(ctx)
}

// Permanentize promotes the shadow collection to the canonical name. With
// merge the shadow documents are added to the canonical collection,
// otherwise the canonical collection is replaced.
func (r *Repository[E, K]) Permanentize(ctx context.Context, merge bool) bool {
	src := ShadowName(r.collection)
	var err error
	if merge {
		err = r.backend.Merge(ctx, src, r.collection)
	} else {
		err = r.backend.Replace(ctx, src, r.collection)
	}
	if err != nil {
		slog.Error("Cannot permanentize collection",
			"collection", r.collection, "merge", merge, "error", err)
		return false
	}
	return true
}

// GetBatch returns a page of entities ordered by ID, starting after skip
// entities. Page size is the batch size.
func (r *Repository[E, K]) GetBatch(ctx context.Context, skip int) []E {
	docs, err := r.backend.Find(ctx, r.CollectionName(), skip, r.batchSize)
	if err != nil {
		slog.Error("Cannot read verbatim batch",
			"collection", r.CollectionName(), "skip", skip, "error", err)
		return nil
	}
	return r.fromDocuments(docs)
}

// GetAll returns every entity of the current collection.
func (r *Repository[E, K]) GetAll(ctx context.Context) []E {
	var res []E
	for skip := 0; ; skip += r.batchSize {
		page := r.GetBatch(ctx, skip)
		res = append(res, page...)
		if len(page) < r.batchSize || ctx.Err() != nil {
			break
		}
	}
	return res
}

func (r *Repository[E, K]) toDocument(item E) (Document, error) {
	body, err := r.enc.Encode(item)
	if err != nil {
		return Document{}, err
	}
	res := Document{ID: DocID(item.VerbatimID()), Body: body}
	if m, ok := any(item).(Modifier); ok {
		res.Modified = m.LastModified()
	}
	return res, nil
}

func (r *Repository[E, K]) toDocuments(items []E) ([]Document, error) {
	res := make([]Document, len(items))
	for i := range items {
		doc, err := r.toDocument(items[i])
		if err != nil {
			return nil, err
		}
		res[i] = doc
	}
	return res, nil
}

func (r *Repository[E, K]) fromDocuments(docs []Document) []E {
	res := make([]E, 0, len(docs))
	for _, v := range docs {
		var e E
		if err := r.enc.Decode(v.Body, &e); err != nil {
			slog.Warn("Skipping undecodable verbatim document",
				"collection", r.CollectionName(), "id", v.ID, "error", err)
			continue
		}
		res = append(res, e)
	}
	return res
}
