package iomem

import (
	"context"
	"sync"

	"github.com/gnames/gnsos/pkg/harvest"
)

// InfoStore implements harvest.InfoStore in memory.
type InfoStore struct {
	mu    sync.Mutex
	infos []harvest.Info
}

// NewInfoStore creates an empty InfoStore.
func NewInfoStore() *InfoStore {
	return &InfoStore{}
}

// Save keeps a copy of info. A run with the same RunID is replaced.
func (s *InfoStore) Save(_ context.Context, info *harvest.Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.infos {
		if s.infos[i].RunID == info.RunID {
			s.infos[i] = *info
			return nil
		}
	}
	s.infos = append(s.infos, *info)
	return nil
}

// LastSuccess returns the successful run of identifier with the latest
// End.
func (s *InfoStore) LastSuccess(
	_ context.Context,
	identifier string,
) (*harvest.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res *harvest.Info
	for i := range s.infos {
		v := s.infos[i]
		if v.ID != identifier || v.Status != harvest.Success {
			continue
		}
		if res == nil || v.End.After(res.End) {
			res = &v
		}
	}
	return res, nil
}

// All returns saved runs in the order they were saved.
func (s *InfoStore) All() []harvest.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]harvest.Info, len(s.infos))
	copy(res, s.infos)
	return res
}
