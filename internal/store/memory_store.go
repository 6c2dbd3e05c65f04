package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/webguardai/webguard/internal/model"
)

// MemoryStore implements interfaces.ResultStore in process memory. Nothing
// survives a restart; use it for tests and throwaway deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	verdicts   map[string]*model.Verdict       // by request_id
	byPrint    map[string][]*model.Verdict     // by fingerprint, insertion order
	deliveries map[string]*model.DeliveryState // by request_id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		verdicts:   make(map[string]*model.Verdict),
		byPrint:    make(map[string][]*model.Verdict),
		deliveries: make(map[string]*model.DeliveryState),
	}
}

func (s *MemoryStore) PutVerdict(_ context.Context, v *model.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verdicts[v.RequestID]; exists {
		return nil // write-once
	}
	cp := *v
	s.verdicts[v.RequestID] = &cp
	s.byPrint[v.Fingerprint] = append(s.byPrint[v.Fingerprint], &cp)
	return nil
}

func (s *MemoryStore) GetVerdict(_ context.Context, requestID string) (*model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[requestID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) GetVerdictByFingerprint(_ context.Context, fingerprint string) (*model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.byPrint[fingerprint]
	if len(vs) == 0 {
		return nil, nil
	}
	latest := vs[0]
	for _, v := range vs[1:] {
		if v.ComputedAt.After(latest.ComputedAt) {
			latest = v
		}
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) PutDelivery(_ context.Context, d *model.DeliveryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.deliveries[d.RequestID] = &cp
	return nil
}

func (s *MemoryStore) UpdateDelivery(_ context.Context, d *model.DeliveryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.RequestID]; !ok {
		return fmt.Errorf("update delivery: no row for request_id %s", d.RequestID)
	}
	cp := *d
	s.deliveries[d.RequestID] = &cp
	return nil
}

func (s *MemoryStore) GetDelivery(_ context.Context, requestID string) (*model.DeliveryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[requestID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) Close() error { return nil }
