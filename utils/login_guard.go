package utils

import (
	"context"
	"strings"
	"sync"
	"time"
)

func loginKey(parts ...string) string {
	return "login:" + strings.Join(parts, ":")
}

// LoginGuard locks a username after repeated failed logins from one IP.
// Counters live in Redis when configured and in memory otherwise.
type LoginGuard struct {
	maxFailures int
	window      time.Duration
	lockFor     time.Duration

	mu       sync.Mutex
	failures map[string]failCount
	locks    map[string]time.Time
}

type failCount struct {
	n       int
	resetAt time.Time
}

// NewLoginGuard allows maxFailures wrong passwords per window before locking
// for lockFor. maxFailures <= 0 disables the guard.
func NewLoginGuard(maxFailures int, window, lockFor time.Duration) *LoginGuard {
	return &LoginGuard{
		maxFailures: maxFailures,
		window:      window,
		lockFor:     lockFor,
		failures:    map[string]failCount{},
		locks:       map[string]time.Time{},
	}
}

func guardSubject(username, ip string) string {
	return strings.ToLower(username) + "|" + ip
}

// Locked reports whether the pair is currently locked out.
func (g *LoginGuard) Locked(username, ip string) bool {
	if g == nil || g.maxFailures <= 0 {
		return false
	}
	subject := guardSubject(username, ip)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		n, err := rc.Exists(ctx, loginKey("lock", subject)).Result()
		if err == nil {
			return n > 0
		}
		// fail over to the in-memory view
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	until, ok := g.locks[subject]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(g.locks, subject)
		return false
	}
	return true
}

// Fail records a failed attempt and locks the pair once the limit is reached.
// It returns true when this attempt triggered the lock.
func (g *LoginGuard) Fail(username, ip string) bool {
	if g == nil || g.maxFailures <= 0 {
		return false
	}
	subject := guardSubject(username, ip)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		key := loginKey("fail", subject)
		n, err := rc.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				_ = rc.Expire(ctx, key, g.window).Err()
			}
			if int(n) >= g.maxFailures {
				_ = rc.Set(ctx, loginKey("lock", subject), "1", g.lockFor).Err()
				_ = rc.Del(ctx, key).Err()
				return true
			}
			return false
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	fc := g.failures[subject]
	if now.After(fc.resetAt) {
		fc = failCount{resetAt: now.Add(g.window)}
	}
	fc.n++
	if fc.n >= g.maxFailures {
		delete(g.failures, subject)
		g.locks[subject] = now.Add(g.lockFor)
		return true
	}
	g.failures[subject] = fc
	return false
}

// Reset clears the failure count after a successful login.
func (g *LoginGuard) Reset(username, ip string) {
	if g == nil || g.maxFailures <= 0 {
		return
	}
	subject := guardSubject(username, ip)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = rc.Del(ctx, loginKey("fail", subject)).Err()
	}
	g.mu.Lock()
	delete(g.failures, subject)
	g.mu.Unlock()
}
