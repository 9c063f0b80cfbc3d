package redis

import (
	"context"
	"os"
	"testing"

	"github.com/chrissnell/lunarmansion/internal/storage/storagetest"
)

// Set LUNARMANSION_TEST_REDIS_ADDR (e.g. localhost:6379) to run against a real server
func TestStore(t *testing.T) {
	addr := os.Getenv("LUNARMANSION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LUNARMANSION_TEST_REDIS_ADDR not set")
	}

	s, err := New(context.Background(), Options{Addr: addr, DB: 15}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	storagetest.Run(t, s)
}

func TestUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(ctx, Options{Addr: "127.0.0.1:1"}, nil); err == nil {
		t.Error("expected an error connecting with a cancelled context")
	}
}
