// Package iomem keeps verbatim collections and harvest infos in memory.
// It is used for dry runs and tests, data is lost when the process exits.
package iomem

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gnames/gnsos/pkg/verbatim"
)

// Backend implements verbatim.Backend with mutex-protected maps.
type Backend struct {
	// MaxBatch simulates a rate limit of the store. InsertMany of more
	// than MaxBatch documents fails with verbatim.ErrCongestion. Zero
	// means no limit.
	MaxBatch int

	// OnInsert, if set, is called before every InsertMany. A returned
	// error is returned from InsertMany and nothing is written.
	OnInsert func(name string, size int) error

	mu    sync.Mutex
	colls map[string]map[string]verbatim.Document
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{colls: make(map[string]map[string]verbatim.Document)}
}

func (b *Backend) CreateCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.colls[name]; !ok {
		b.colls[name] = make(map[string]verbatim.Document)
	}
	return nil
}

func (b *Backend) DropCollection(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.colls, name)
	return nil
}

func (b *Backend) CollectionExists(_ context.Context, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.colls[name]
	return ok, nil
}

func (b *Backend) InsertMany(
	ctx context.Context,
	name string,
	docs []verbatim.Document,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.OnInsert != nil {
		if err := b.OnInsert(name, len(docs)); err != nil {
			return err
		}
	}
	if b.MaxBatch > 0 && len(docs) > b.MaxBatch {
		return verbatim.Congestion(
			fmt.Errorf("batch of %d exceeds limit %d", len(docs), b.MaxBatch),
		)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	coll := b.collection(name)
	for _, v := range docs {
		coll[v.ID] = v
	}
	return nil
}

func (b *Backend) Upsert(
	ctx context.Context,
	name string,
	doc verbatim.Document,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collection(name)[doc.ID] = doc
	return nil
}

func (b *Backend) Delete(_ context.Context, name, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if coll, ok := b.colls[name]; ok {
		delete(coll, id)
	}
	return nil
}

func (b *Backend) DeleteMany(_ context.Context, name string, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if coll, ok := b.colls[name]; ok {
		for _, id := range ids {
			delete(coll, id)
		}
	}
	return nil
}

func (b *Backend) Get(
	_ context.Context,
	name, id string,
) (verbatim.Document, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.colls[name]
	if !ok {
		return verbatim.Document{}, false, nil
	}
	doc, ok := coll[id]
	return doc, ok, nil
}

func (b *Backend) Find(
	ctx context.Context,
	name string,
	skip, limit int,
) ([]verbatim.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.colls[name]
	if !ok || skip >= len(coll) {
		return nil, nil
	}
	ids := slices.Sorted(maps.Keys(coll))
	end := len(ids)
	if limit > 0 {
		end = min(skip+limit, len(ids))
	}
	res := make([]verbatim.Document, 0, end-skip)
	for _, id := range ids[skip:end] {
		res = append(res, coll[id])
	}
	return res, nil
}

func (b *Backend) Count(_ context.Context, name string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.colls[name])), nil
}

func (b *Backend) Replace(_ context.Context, src, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.colls[src]
	if !ok {
		return fmt.Errorf("collection %s does not exist", src)
	}
	b.colls[dst] = coll
	delete(b.colls, src)
	return nil
}

func (b *Backend) Merge(_ context.Context, src, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	coll, ok := b.colls[src]
	if !ok {
		return fmt.Errorf("collection %s does not exist", src)
	}
	target := b.collection(dst)
	maps.Copy(target, coll)
	delete(b.colls, src)
	return nil
}

// collection returns a collection, creating it when needed. Caller holds
// the lock.
func (b *Backend) collection(name string) map[string]verbatim.Document {
	coll, ok := b.colls[name]
	if !ok {
		coll = make(map[string]verbatim.Document)
		b.colls[name] = coll
	}
	return coll
}
