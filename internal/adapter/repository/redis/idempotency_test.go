package redis

import (
	"context"
	"testing"
	"time"
)

type opCounter struct {
	ops  map[string]int
	errs map[string]int
}

func newOpCounter() *opCounter {
	return &opCounter{ops: map[string]int{}, errs: map[string]int{}}
}

func (c *opCounter) RedisOperation(op string) { c.ops[op]++ }
func (c *opCounter) RedisError(op string)     { c.errs[op]++ }

func TestIdempotencyStore_CheckAndSetExisting(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}

	if !exists || string(resp) != "cached" {
		t.Fatalf("expected existing cached response, got exists=%v resp=%s", exists, resp)
	}
}

func TestIdempotencyStore_CheckAndSetClaimsNewKey(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("unexpected result: exists=%v resp=%v err=%v", exists, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"pending").Result()
	if err != nil || val != pendingMarker {
		t.Fatalf("expected pending marker, got val=%s err=%v", val, err)
	}
	if ttl := mr.TTL(store.prefix + "pending"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	// A second caller sees the key as in flight.
	exists, resp, err = store.CheckAndSet(ctx, "pending", nil, time.Minute)
	if err != nil || !exists || !isPending(resp) {
		t.Fatalf("expected in-flight key, got exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_CheckAndSetWithResponse(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "k", []byte(`{"ok":true}`), time.Minute)
	if err != nil || exists {
		t.Fatalf("unexpected result: exists=%v err=%v", exists, err)
	}

	got, err := mr.Get(store.prefix + "k")
	if err != nil || got != `{"ok":true}` {
		t.Fatalf("expected stored response, got %q err=%v", got, err)
	}
}

func TestIdempotencyStore_Update(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := store.Update(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	if err != nil || val != "done" {
		t.Fatalf("expected stored response, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_Release(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "retry", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Release(ctx, "retry"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if mr.Exists(store.prefix + "retry") {
		t.Fatal("expected key to be removed")
	}

	exists, _, err := store.CheckAndSet(ctx, "retry", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected key to be claimable again, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_OptionsAndRecorder(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	counter := newOpCounter()
	store := NewIdempotencyStore(client, WithPrefix("test:"), WithRecorder(counter))
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "k", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !mr.Exists("test:k") {
		t.Fatal("expected custom prefix to be used")
	}
	if counter.ops["setnx"] != 1 {
		t.Errorf("setnx count = %d, want 1", counter.ops["setnx"])
	}

	mr.Close()

	if err := store.Update(ctx, "k", []byte("x"), time.Minute); err == nil {
		t.Fatal("expected error with redis down")
	}
	if counter.errs["set"] != 1 {
		t.Errorf("set error count = %d, want 1", counter.errs["set"])
	}
}
