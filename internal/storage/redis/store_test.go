package redis

import (
	"context"
	"os"
	"testing"
)

// 需要真实 Redis：设置 LINELOAD_TEST_REDIS_URL 后运行
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	url := os.Getenv("LINELOAD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LINELOAD_TEST_REDIS_URL 未设置，跳过 Redis 测试")
	}
	store, err := NewRedisStore(url, "lineload:test:"+t.Name()+":")
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url://", "p:"); err == nil {
		t.Fatal("非法URL应返回错误")
	}
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	rs := NewRedisStoreWithClient(nil, "lineload:state:")
	if got := rs.key("pixiviz-api-prefix"); got != "lineload:state:pixiviz-api-prefix" {
		t.Fatalf("key=%s", got)
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "k", `{"pass":false,"time":1}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || val != `{"pass":false,"time":1}` {
		t.Fatalf("Get: val=%q ok=%v err=%v", val, ok, err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("重复 Remove 不应报错: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("Remove 后仍可读取")
	}
}
