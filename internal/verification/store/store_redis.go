package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"realtyvest/internal/platform/metrics"
	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/sentinel"
)

const (
	// Records live under a fixed key per user.
	recordKeyPrefix = "verification-store:"
	// One set of user IDs per status backs the reviewer queue.
	statusKeyPrefix = "verification-store:status:"
)

func recordKey(userID id.UserID) string { return recordKeyPrefix + userID.String() }

func statusKey(status models.Status) string { return statusKeyPrefix + string(status) }

// RedisStore stores each snapshot as JSON and maintains a status index.
type RedisStore struct {
	client  *redis.Client
	metrics *metrics.Store
}

type RedisOption func(*RedisStore)

func WithMetrics(m *metrics.Store) RedisOption {
	return func(s *RedisStore) {
		s.metrics = m
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) observe(op string, start time.Time) {
	s.metrics.ObserveOp("redis", op, time.Since(start))
}

func (s *RedisStore) Load(ctx context.Context, userID id.UserID) (models.Snapshot, error) {
	defer s.observe("load", time.Now())

	raw, err := s.client.Get(ctx, recordKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load verification record: %w", err)
	}
	return decodeSnapshot(raw)
}

// Save writes the record and moves the user into the set of its status in
// one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, userID id.UserID, snapshot models.Snapshot) error {
	defer s.observe("save", time.Now())

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}
	member := userID.String()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(userID), raw, 0)
		for _, status := range models.AllStatuses {
			if status != snapshot.Status {
				pipe.SRem(ctx, statusKey(status), member)
			}
		}
		pipe.SAdd(ctx, statusKey(snapshot.Status), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID id.UserID) error {
	defer s.observe("delete", time.Now())

	member := userID.String()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, recordKey(userID))
		for _, status := range models.AllStatuses {
			pipe.SRem(ctx, statusKey(status), member)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByStatus(ctx context.Context, statuses ...models.Status) ([]Entry, error) {
	defer s.observe("list_by_status", time.Now())

	if len(statuses) == 0 {
		return nil, nil
	}
	keys := make([]string, len(statuses))
	for i, status := range statuses {
		keys[i] = statusKey(status)
	}
	members, err := s.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list verification index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	userIDs := make([]id.UserID, 0, len(members))
	recordKeys := make([]string, 0, len(members))
	for _, m := range members {
		userID, err := id.ParseUserID(m)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, userID)
		recordKeys = append(recordKeys, recordKey(userID))
	}

	values, err := s.client.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load verification records: %w", err)
	}

	want := statusSet(statuses)
	entries := make([]Entry, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between SUNION and MGET.
			continue
		}
		snap, err := decodeSnapshot([]byte(raw))
		if err != nil {
			return nil, err
		}
		if want[snap.Status] {
			entries = append(entries, Entry{UserID: userIDs[i], Snapshot: snap})
		}
	}
	sortEntries(entries)
	return entries, nil
}

func decodeSnapshot(raw []byte) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decode verification record: %v", sentinel.ErrInvalidState, err)
	}
	if err := snap.Validate(); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", sentinel.ErrInvalidState, err)
	}
	return snap, nil
}
