package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/room"
)

// RedisStore persists message threads. Each room's thread is a Redis
// list: RPUSH is atomic per key, so concurrent appends to the same room
// interleave without losing either message, and list order is append
// order.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// threadKey returns the key for a room's message list.
func threadKey(roomID string) string {
	return "thread:" + roomID
}

// AppendMessage appends a message to the room's thread, creating the
// thread on first use. The store assigns the message id and timestamp;
// the returned message carries both so the broadcast can echo them.
func (s *RedisStore) AppendMessage(ctx context.Context, roomID string, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, err
	}

	if err := s.client.RPush(ctx, threadKey(roomID), data).Err(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Thread returns the room's messages in append order. A room with no
// thread yet yields an empty slice, not an error.
func (s *RedisStore) Thread(ctx context.Context, roomID string) ([]models.Message, error) {
	results, err := s.client.LRange(ctx, threadKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ThreadsForJob returns every thread whose room id belongs to the given
// job, found by a prefix scan over the encoded room id form.
func (s *RedisStore) ThreadsForJob(ctx context.Context, jobID string) ([]models.Thread, error) {
	pattern := threadKey(room.JobPrefix(jobID)) + "*"

	var threads []models.Thread
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		roomID := strings.TrimPrefix(iter.Val(), "thread:")
		messages, err := s.Thread(ctx, roomID)
		if err != nil {
			return nil, err
		}
		threads = append(threads, models.Thread{RoomID: roomID, Messages: messages})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	// SCAN order is unspecified
	sort.Slice(threads, func(i, j int) bool { return threads[i].RoomID < threads[j].RoomID })
	return threads, nil
}
