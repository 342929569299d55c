package repository

import (
	"context"
	"sync"

	"skycam/edgeagent/pkg/fetch"
)

type memoryCacheStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*fetch.Response
}

func NewMemoryCacheStore() CacheStore {
	return &memoryCacheStore{
		buckets: make(map[string]map[string]*fetch.Response),
	}
}

func (s *memoryCacheStore) Put(_ context.Context, bucket, key string, resp *fetch.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string]*fetch.Response)
		s.buckets[bucket] = b
	}
	b[key] = resp
	return nil
}

func (s *memoryCacheStore) Match(_ context.Context, bucket, key string) (*fetch.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return nil, nil
	}
	return b[key], nil
}

func (s *memoryCacheStore) ListBuckets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names, nil
}

func (s *memoryCacheStore) DeleteBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, bucket)
	return nil
}
