package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestBlacklistKeyHidesToken(t *testing.T) {
	key := blacklistKey("header.payload.signature")
	if !strings.HasPrefix(key, "blacklist:") || strings.Contains(key, "payload") {
		t.Fatalf("key = %q", key)
	}
	if len(strings.TrimPrefix(key, "blacklist:")) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", key)
	}
	if blacklistKey("a") == blacklistKey("b") {
		t.Fatal("distinct tokens must map to distinct keys")
	}
}

func TestNewTokenRepositoryWithoutRedis(t *testing.T) {
	if repo := NewTokenRepository(nil); repo != nil {
		t.Fatalf("expected nil repository, got %T", repo)
	}
}

func TestTokenRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	repo := NewTokenRepository(client)

	if _, err := repo.IsRevoked(context.Background(), "tok"); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if err := repo.Revoke(context.Background(), "tok", time.Minute); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if err := repo.Revoke(context.Background(), "tok", 0); err != nil {
		t.Fatalf("expired token needs no revocation, got %v", err)
	}
}
