// Package iolock provides per-provider harvest locks. Only one harvest
// of a data provider may write into its shadow collection at a time.
package iolock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gnames/gnsos/pkg/config"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix is prepended to lock keys.
const KeyPrefix = "gnsos:harvest:"

// Locker acquires named locks.
type Locker interface {
	// Acquire tries to take the lock of key for owner. If the lock is
	// held by somebody else ok is false. Release is never nil and is
	// safe to call more than once.
	Acquire(ctx context.Context, key, owner string) (release func(), ok bool, err error)

	// Close releases resources of the locker.
	Close() error
}

// New returns a redis locker when cfg.Redis.Addr is set, otherwise an
// in-process locker.
func New(cfg *config.Config) Locker {
	if cfg.Redis.Addr == "" {
		return NewLocal()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return NewRedis(client, cfg.LockTTL())
}

func noop() {}

type local struct {
	mu    sync.Mutex
	locks map[string]string
}

// NewLocal creates a Locker for harvests of one process.
func NewLocal() Locker {
	return &local{locks: make(map[string]string)}
}

func (l *local) Acquire(
	_ context.Context,
	key, owner string,
) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.locks[key]; ok {
		return noop, false, nil
	}
	l.locks[key] = owner

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.locks[key] == owner {
				delete(l.locks, key)
			}
		})
	}
	return release, true, nil
}

func (l *local) Close() error { return nil }

// releaseScript deletes the key only if it still belongs to the owner,
// an expired lock might be taken by another harvest already.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript renews the TTL only if the key still belongs to the owner.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Locker shared by all processes that use the same
// redis. A held lock is renewed every ttl/3, so it expires only after
// its process dies without releasing it.
func NewRedis(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl}
}

func (r *redisLocker) Acquire(
	ctx context.Context,
	key, owner string,
) (func(), bool, error) {
	k := KeyPrefix + key
	ok, err := r.client.SetNX(ctx, k, owner, r.ttl).Result()
	if err != nil {
		return noop, false, LockError(key, err)
	}
	if !ok {
		return noop, false, nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(stop, r.ttl/3, func() bool { return r.extend(k, owner) })
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done
			// the harvest context may be canceled already
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := releaseScript.Run(ctx, r.client, []string{k}, owner).Err()
			if err != nil {
				slog.Error("Cannot release harvest lock", "key", k, "error", err)
			}
		})
	}
	return release, true, nil
}

// extend renews the TTL of a held lock. It returns false when the lock
// belongs to somebody else or is gone.
func (r *redisLocker) extend(key, owner string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := extendScript.Run(ctx, r.client, []string{key}, owner,
		r.ttl.Milliseconds()).Int()
	if err != nil {
		// try again on the next tick
		slog.Warn("Cannot extend harvest lock", "key", key, "error", err)
		return true
	}
	if n == 0 {
		slog.Error("Harvest lock is lost", "key", key, "owner", owner)
		return false
	}
	return true
}

// keepAlive calls extend every interval until stop is closed or extend
// returns false.
func keepAlive(stop <-chan struct{}, interval time.Duration, extend func() bool) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if !extend() {
				return
			}
		}
	}
}

func (r *redisLocker) Close() error {
	return r.client.Close()
}
