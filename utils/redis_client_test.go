package utils

import "testing"

func TestGetRedisNilWhenUnreachable(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")
	t.Setenv("ADMIN_SECRET", "test")
	t.Setenv("WEBHOOK_SECRET", "test")
	// Port 1 is never a Redis server; the startup ping must fail.
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")

	if rc := GetRedis(); rc != nil {
		t.Error("expected a nil client when redis is unreachable at startup")
	}
}
