package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Board stores job statuses.
type Board interface {
	Put(ctx context.Context, status Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	// Latest returns the status of the most recently submitted job of kind.
	Latest(ctx context.Context, kind Kind) (Status, bool, error)
}

// MemoryBoard keeps statuses in process memory.
type MemoryBoard struct {
	mu     sync.RWMutex
	jobs   map[string]Status
	latest map[Kind]string
}

var _ Board = (*MemoryBoard)(nil)

// NewMemoryBoard creates an empty MemoryBoard
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		jobs:   make(map[string]Status),
		latest: make(map[Kind]string),
	}
}

func (b *MemoryBoard) Put(_ context.Context, status Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.jobs[status.JobID] = status

	// an older job finishing late must not replace a newer one
	if id, ok := b.latest[status.Kind]; ok && id != status.JobID {
		if cur, ok := b.jobs[id]; ok && cur.SubmittedAt.After(status.SubmittedAt) {
			return nil
		}
	}
	b.latest[status.Kind] = status.JobID
	return nil
}

func (b *MemoryBoard) Get(_ context.Context, jobID string) (Status, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.jobs[jobID]
	return s, ok, nil
}

func (b *MemoryBoard) Latest(_ context.Context, kind Kind) (Status, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.latest[kind]
	if !ok {
		return Status{}, false, nil
	}
	s, ok := b.jobs[id]
	return s, ok, nil
}

// putScript stores the job status and moves the latest pointer only when the
// job was submitted no earlier than the one it points at. The pointer value is
// "<submitted unix ms>|<job id>".
//
// KEYS[1] job key, KEYS[2] latest key
// ARGV[1] status json, ARGV[2] submitted unix ms, ARGV[3] job id, ARGV[4] ttl ms (0 keeps forever)
var putScript = redis.NewScript(`
local ttl = tonumber(ARGV[4])
local function set(key, value)
  if ttl > 0 then
    redis.call('SET', key, value, 'PX', ttl)
  else
    redis.call('SET', key, value)
  end
end

set(KEYS[1], ARGV[1])

local cur = redis.call('GET', KEYS[2])
if cur then
  local sep = string.find(cur, '|', 1, true)
  if sep then
    local at = tonumber(string.sub(cur, 1, sep - 1))
    local id = string.sub(cur, sep + 1)
    if id ~= ARGV[3] and at and at > tonumber(ARGV[2]) then
      return 0
    end
  end
end

set(KEYS[2], ARGV[2] .. '|' .. ARGV[3])
return 1
`)

// RedisBoard stores statuses as JSON strings with a TTL, so finished jobs expire.
type RedisBoard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Board = (*RedisBoard)(nil)

// NewRedisBoard creates a RedisBoard. Keys are prefixed with prefix.
func NewRedisBoard(client *redis.Client, prefix string, ttl time.Duration) *RedisBoard {
	if prefix == "" {
		prefix = "chatbot"
	}
	return &RedisBoard{client: client, prefix: prefix, ttl: ttl}
}

func (b *RedisBoard) jobKey(jobID string) string {
	return fmt.Sprintf("%s:job:%s", b.prefix, jobID)
}

func (b *RedisBoard) latestKey(kind Kind) string {
	return fmt.Sprintf("%s:latest:%s", b.prefix, kind)
}

func (b *RedisBoard) Put(ctx context.Context, status Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	keys := []string{b.jobKey(status.JobID), b.latestKey(status.Kind)}
	err = putScript.Run(ctx, b.client, keys,
		string(data), status.SubmittedAt.UnixMilli(), status.JobID, b.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("store status %s: %w", status.JobID, err)
	}
	return nil
}

func (b *RedisBoard) Get(ctx context.Context, jobID string) (Status, bool, error) {
	data, err := b.client.Get(ctx, b.jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("load status %s: %w", jobID, err)
	}

	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, false, fmt.Errorf("unmarshal status %s: %w", jobID, err)
	}
	return s, true, nil
}

func (b *RedisBoard) Latest(ctx context.Context, kind Kind) (Status, bool, error) {
	pointer, err := b.client.Get(ctx, b.latestKey(kind)).Result()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("load latest %s: %w", kind, err)
	}

	_, id, ok := strings.Cut(pointer, "|")
	if !ok {
		return Status{}, false, fmt.Errorf("malformed latest pointer for %s: %q", kind, pointer)
	}
	return b.Get(ctx, id)
}
