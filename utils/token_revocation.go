package utils

import (
	"context"
	"sync"
	"time"
)

const revokedKeyPrefix = "session:revoked:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.Mutex
)

// RevokeToken marks a session token as logged out until expiresAt.
// Redis is used when configured so every process sees the logout.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
		Sugar.Warn("redis unavailable, revoking session in memory")
	}
	revokedMu.Lock()
	defer revokedMu.Unlock()
	now := time.Now()
	for k, exp := range revoked {
		if now.After(exp) {
			delete(revoked, k)
		}
	}
	revoked[token] = expiresAt
}

// IsTokenRevoked reports whether the token was logged out before expiry.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}
	revokedMu.Lock()
	defer revokedMu.Unlock()
	exp, ok := revoked[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(revoked, token)
		return false
	}
	return true
}
