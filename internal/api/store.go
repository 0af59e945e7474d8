package api

import (
	"sync"
)

// defaultStoreCapacity bounds how many results a WindowStore keeps.
const defaultStoreCapacity = 1024

// WindowStore keeps generated results in memory by id. When full, the oldest
// result is evicted.
type WindowStore struct {
	mu       sync.Mutex
	capacity int
	results  map[string]WindowsResponse
	order    []string
}

// NewWindowStore returns a store holding up to capacity results. A capacity
// <= 0 uses the default.
func NewWindowStore(capacity int) *WindowStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	return &WindowStore{
		capacity: capacity,
		results:  make(map[string]WindowsResponse),
	}
}

func (s *WindowStore) Save(resp WindowsResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.results[resp.ID] = resp
	for len(s.order) > s.capacity {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *WindowStore) Get(id string) (WindowsResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.results[id]
	return resp, ok
}

func (s *WindowStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return false
	}
	delete(s.results, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
