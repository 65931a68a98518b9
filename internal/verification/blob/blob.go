// Package blob keeps uploaded document content out of the verification
// record. The record only holds the handle.
package blob

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/sentinel"
)

// Blob is stored content with the content type it was uploaded with.
type Blob struct {
	ContentType string
	Data        []byte
}

type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[id.BlobID]Blob
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[id.BlobID]Blob)}
}

func (s *InMemoryStore) Put(_ context.Context, handle id.BlobID, b Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[handle] = Blob{ContentType: b.ContentType, Data: append([]byte(nil), b.Data...)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, handle id.BlobID) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[handle]
	if !ok {
		return Blob{}, sentinel.ErrNotFound
	}
	return Blob{ContentType: b.ContentType, Data: append([]byte(nil), b.Data...)}, nil
}

func (s *InMemoryStore) Delete(_ context.Context, handle id.BlobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, handle)
	return nil
}

const (
	blobKeyPrefix = "verification-blob:"
	fieldType     = "content_type"
	fieldData     = "data"
)

// RedisStore keeps each blob in a hash so instances behind a load balancer
// share uploads.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, handle id.BlobID, b Blob) error {
	if err := s.client.HSet(ctx, blobKeyPrefix+handle.String(), fieldType, b.ContentType, fieldData, b.Data).Err(); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, handle id.BlobID) (Blob, error) {
	values, err := s.client.HMGet(ctx, blobKeyPrefix+handle.String(), fieldType, fieldData).Result()
	if errors.Is(err, redis.Nil) {
		return Blob{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Blob{}, fmt.Errorf("load blob: %w", err)
	}
	contentType, ok1 := values[0].(string)
	data, ok2 := values[1].(string)
	if !ok1 || !ok2 {
		return Blob{}, sentinel.ErrNotFound
	}
	return Blob{ContentType: contentType, Data: []byte(data)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, handle id.BlobID) error {
	if err := s.client.Del(ctx, blobKeyPrefix+handle.String()).Err(); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
