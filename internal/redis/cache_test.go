package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fakeRedis implements the three commands ViewCache uses; any other call
// panics through the nil embedded interface.
type fakeRedis struct {
	goredis.Cmdable
	data    map[string]string
	ttls    map[string]time.Duration
	failAll error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.failAll != nil {
		return goredis.NewStringResult("", f.failAll)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.failAll != nil {
		return goredis.NewStatusResult("", f.failAll)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	if f.failAll != nil {
		return goredis.NewIntResult(0, f.failAll)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

type sample struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Secret string `json:"-"`
}

func TestViewCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	cache := NewViewCache[sample](rdb, time.Minute, nil)

	cache.Set(ctx, "k", &sample{ID: 1, Name: "alice", Secret: "hash"})
	if rdb.ttls["k"] != time.Minute {
		t.Errorf("expected ttl to be forwarded, got %v", rdb.ttls["k"])
	}

	got, ok := cache.Get(ctx, "k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.ID != 1 || got.Name != "alice" || got.Secret != "" {
		t.Errorf("unexpected cached value: %+v", got)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Errorf("expected miss after delete")
	}
}

func TestViewCacheMissOnBadPayload(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["k"] = "{not json"
	cache := NewViewCache[sample](rdb, 0, nil)
	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Errorf("expected miss on undecodable payload")
	}
}

func TestViewCacheRedisErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.failAll = errors.New("connection refused")
	cache := NewViewCache[sample](rdb, 0, nil)

	cache.Set(ctx, "k", &sample{ID: 1})
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Errorf("expected miss when redis is down")
	}
	if err := cache.Delete(ctx, "k"); !errors.Is(err, rdb.failAll) {
		t.Errorf("expected delete failure to be returned, got %v", err)
	}
}
