// Package presence tracks each user's online flag and the thread
// they are currently viewing. The state is advisory, connection
// scoped, and last-write-wins: the gateway overwrites it on every
// connect and disconnect, and nothing else touches it.
package presence

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Status is the last known presence of a user. The zero value means
// the user has never connected.
type Status struct {
	Online bool
	// ThreadID is the thread the user is actively viewing; zero when
	// not viewing any thread.
	ThreadID uint
}

// Tracker is the narrow atomic-update interface the gateway calls.
type Tracker interface {
	SetOnline(ctx context.Context, userID string, threadID uint) error
	SetOffline(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (Status, error)
}

// RedisTracker keeps presence in a per-user redis hash. A single
// HSET per transition gives the per-key atomicity the contract asks
// for; there is no cross-user coordination.
type RedisTracker struct {
	rdb *redis.Client

	// clearThread controls whether the viewing pointer is dropped on
	// disconnect. The source system left it stale; clearing is the
	// safer default and is gated by configuration.
	clearThread bool
}

// NewRedisTracker builds a Tracker on the given client.
func NewRedisTracker(rdb *redis.Client, clearThreadOnDisconnect bool) *RedisTracker {
	return &RedisTracker{rdb: rdb, clearThread: clearThreadOnDisconnect}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

// SetOnline marks the user online and viewing the given thread.
func (t *RedisTracker) SetOnline(ctx context.Context, userID string, threadID uint) error {
	return t.rdb.HSet(ctx, presenceKey(userID),
		"online", "1",
		"thread", strconv.FormatUint(uint64(threadID), 10),
	).Err()
}

// SetOffline marks the user offline. The viewing pointer survives
// unless the tracker was configured to clear it.
func (t *RedisTracker) SetOffline(ctx context.Context, userID string) error {
	key := presenceKey(userID)
	if err := t.rdb.HSet(ctx, key, "online", "0").Err(); err != nil {
		return err
	}
	if t.clearThread {
		return t.rdb.HDel(ctx, key, "thread").Err()
	}
	return nil
}

// Get returns the user's last known presence. A user with no record
// yields the zero Status.
func (t *RedisTracker) Get(ctx context.Context, userID string) (Status, error) {
	fields, err := t.rdb.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return Status{}, err
	}
	var status Status
	status.Online = fields["online"] == "1"
	if raw, ok := fields["thread"]; ok {
		if id, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			status.ThreadID = uint(id)
		}
	}
	return status, nil
}
