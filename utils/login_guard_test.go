package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginGuardLocksAfterMaxFailures(t *testing.T) {
	SetRedis(nil)
	g := NewLoginGuard(3, time.Minute, time.Minute)

	assert.False(t, g.Fail("An", "10.0.0.1"))
	assert.False(t, g.Fail("an", "10.0.0.1"))
	assert.False(t, g.Locked("an", "10.0.0.1"))
	assert.True(t, g.Fail("an", "10.0.0.1"))
	assert.True(t, g.Locked("AN", "10.0.0.1"))

	// other IPs are unaffected
	assert.False(t, g.Locked("an", "10.0.0.2"))
}

func TestLoginGuardResetClearsFailures(t *testing.T) {
	SetRedis(nil)
	g := NewLoginGuard(2, time.Minute, time.Minute)
	g.Fail("binh", "ip")
	g.Reset("binh", "ip")
	assert.False(t, g.Fail("binh", "ip"))
	assert.False(t, g.Locked("binh", "ip"))
}

func TestLoginGuardDisabled(t *testing.T) {
	var nilGuard *LoginGuard
	assert.False(t, nilGuard.Fail("x", "y"))
	assert.False(t, nilGuard.Locked("x", "y"))

	g := NewLoginGuard(0, time.Minute, time.Minute)
	for i := 0; i < 10; i++ {
		g.Fail("x", "y")
	}
	assert.False(t, g.Locked("x", "y"))
}

func TestLoginGuardWithRedis(t *testing.T) {
	mr := withMiniredis(t)
	g := NewLoginGuard(2, time.Minute, 5*time.Minute)

	g.Fail("chi", "ip")
	assert.True(t, g.Fail("chi", "ip"))
	assert.True(t, g.Locked("chi", "ip"))

	mr.FastForward(6 * time.Minute)
	assert.False(t, g.Locked("chi", "ip"))
}
