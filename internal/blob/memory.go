package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	info Info
	data []byte
}

// MemoryStore keeps objects in process memory. Intended for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	objs map[string]memEntry
}

// NewMemory returns an in-memory store.
func NewMemory() *MemoryStore { return &MemoryStore{objs: make(map[string]memEntry)} }

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objs[key] = memEntry{info: info, data: b}
	return info, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	info := obj.info
	info.Metadata = cloneMetadata(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Head(_ context.Context, key string) (Info, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return Info{}, fmt.Errorf("blob %s not found", key)
	}
	info := obj.info
	info.Metadata = cloneMetadata(info.Metadata)
	return info, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[key]
	delete(s.objs, key)
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Info, 0, len(s.objs))
	for k, v := range s.objs {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			info := v.info
			info.Metadata = cloneMetadata(info.Metadata)
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) PresignURL(_ context.Context, _ string, _ SignedURLOptions) (string, error) {
	return "", ErrUnsupported
}
