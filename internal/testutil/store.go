package testutil

import (
	"path/filepath"
	"testing"

	"lineLoad/internal/state"
	"lineLoad/internal/storage"
)

// SetupTestStore 创建一个用于测试的 SQLite 键值存储
// 使用方式：kv, cleanup := testutil.SetupTestStore(t); defer cleanup()
func SetupTestStore(t testing.TB) (storage.KVStore, func()) {
	t.Helper()

	kv, err := storage.CreateSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("创建测试数据库失败: %v", err)
	}

	cleanup := func() {
		if err := kv.Close(); err != nil {
			t.Logf("关闭测试数据库失败: %v", err)
		}
	}
	return kv, cleanup
}

// SetupStateStore 创建基于临时 SQLite 的状态存储，测试结束自动关闭
func SetupStateStore(t testing.TB, namespace string) (*state.Store, storage.KVStore) {
	t.Helper()

	kv, cleanup := SetupTestStore(t)
	t.Cleanup(cleanup)
	return state.New(kv, namespace), kv
}
