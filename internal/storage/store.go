package storage

import "context"

// KVStore 端点状态键值存储
// 值为不透明字符串（上层以JSON编码），存储层不做过期处理
type KVStore interface {
	// Get 读取键值，不存在时 ok=false 且 err=nil
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set 写入键值（覆盖）
	Set(ctx context.Context, key, value string) error
	// Remove 删除键，不存在时不报错
	Remove(ctx context.Context, key string) error
	// Ping 后端连通性检查
	Ping(ctx context.Context) error
	// Close 释放连接
	Close() error
}
