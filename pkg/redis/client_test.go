package redis

import (
	"context"
	"testing"

	"github.com/pizzastock/backend/pkg/config"
)

func TestKeyHelpers(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.CartKey("abc123"); got != "ps:cart:abc123" {
		t.Fatalf("unexpected cart key: %s", got)
	}
	if got := c.LockKey("cron-worker"); got != "ps:lock:cron-worker" {
		t.Fatalf("unexpected lock key: %s", got)
	}
	if got := c.LockKey("  "); got != "ps:lock" {
		t.Fatalf("blank parts should be dropped: %s", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address set")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 5})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 5 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if err := c.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
