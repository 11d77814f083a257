package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultStateTTL = 24 * time.Hour
	defaultLockTTL  = 2 * time.Minute
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store persists session state between requests.
type Store interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, state State) error
	AcquireRun(ctx context.Context, userID string) (string, error)
	ReleaseRun(ctx context.Context, userID, token string) error
	IsRunning(ctx context.Context, userID string) (bool, error)
}

// NewRedisStore keeps state as JSON under ide:session:<user>. Zero TTLs fall back to defaults.
func NewRedisStore(client *redis.Client, stateTTL, lockTTL time.Duration) Store {
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &redisStore{client: client, stateTTL: stateTTL, lockTTL: lockTTL}
}

type redisStore struct {
	client   *redis.Client
	stateTTL time.Duration
	lockTTL  time.Duration
}

func stateKey(userID string) string {
	return fmt.Sprintf("ide:session:%s", userID)
}

func lockKey(userID string) string {
	return fmt.Sprintf("ide:session:%s:running", userID)
}

func (s *redisStore) Load(ctx context.Context, userID string) (State, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(userID), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	state.UserID = userID
	// The lock key is the source of truth for in-flight runs.
	state.Running = false
	return state, nil
}

func (s *redisStore) Save(ctx context.Context, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(state.UserID), payload, s.stateTTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// AcquireRun takes the per-user running lock and returns the token needed to release it.
func (s *redisStore) AcquireRun(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(userID), token, s.lockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return "", ErrRunInProgress
	}
	return token, nil
}

func (s *redisStore) ReleaseRun(ctx context.Context, userID, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{lockKey(userID)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

func (s *redisStore) IsRunning(ctx context.Context, userID string) (bool, error) {
	count, err := s.client.Exists(ctx, lockKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check run lock: %w", err)
	}
	return count > 0, nil
}
