// Package state 端点状态的类型化读写
//
// 底层为 storage.KVStore；记录以JSON存储并自带时间戳，
// 过期判断由调用方完成（存储层没有TTL）。
package state

import (
	"context"
	"log"
	"time"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
	"lineLoad/internal/storage"
	"lineLoad/internal/util"
)

// Keys 状态键名
type Keys struct {
	Prefix        string // 首选API前缀（纯字符串）
	APIFailed     string // 上次API检查结果 {pass,time}
	APIDisabled   string // 已禁用API前缀 {hosts,time}
	ProxyDisabled string // 已禁用代理主机 {hosts,time}
}

// NewKeys 按命名空间生成键名
func NewKeys(namespace string) Keys {
	return Keys{
		Prefix:        namespace + "-api-prefix",
		APIFailed:     namespace + "-api-failed",
		APIDisabled:   namespace + "-api-disabled",
		ProxyDisabled: namespace + "-proxy-disabled",
	}
}

// Disabled 返回作用域对应的禁用集合键
func (k Keys) Disabled(scope model.DisabledScope) string {
	if scope == model.ScopeProxy {
		return k.ProxyDisabled
	}
	return k.APIDisabled
}

// Store 端点状态存储
type Store struct {
	kv   storage.KVStore
	keys Keys
}

// New 创建状态存储
func New(kv storage.KVStore, namespace string) *Store {
	return &Store{kv: kv, keys: NewKeys(namespace)}
}

// Keys 当前使用的键名
func (s *Store) Keys() Keys {
	return s.keys
}

// PreferredPrefix 读取上次选中的API前缀
func (s *Store) PreferredPrefix(ctx context.Context) (string, bool, error) {
	val, ok, err := s.kv.Get(ctx, s.keys.Prefix)
	if err != nil {
		return "", false, errors.StateReadError(s.keys.Prefix, err)
	}
	if !ok || val == "" {
		return "", false, nil
	}
	return val, true, nil
}

// SavePreferredPrefix 保存选中的API前缀
func (s *Store) SavePreferredPrefix(ctx context.Context, prefix string) error {
	if err := s.kv.Set(ctx, s.keys.Prefix, prefix); err != nil {
		return errors.StateWriteError(s.keys.Prefix, err)
	}
	return nil
}

// LastHealth 读取上次API检查结果
func (s *Store) LastHealth(ctx context.Context) (model.HealthRecord, bool, error) {
	var rec model.HealthRecord
	ok, err := s.getJSON(ctx, s.keys.APIFailed, &rec)
	return rec, ok, err
}

// SaveHealth 保存API检查结果
func (s *Store) SaveHealth(ctx context.Context, rec model.HealthRecord) error {
	return s.setJSON(ctx, s.keys.APIFailed, rec)
}

// Disabled 读取禁用集合（不判断过期）
func (s *Store) Disabled(ctx context.Context, scope model.DisabledScope) (model.DisabledRecord, bool, error) {
	var rec model.DisabledRecord
	ok, err := s.getJSON(ctx, s.keys.Disabled(scope), &rec)
	return rec, ok, err
}

// SaveDisabled 保存禁用集合
func (s *Store) SaveDisabled(ctx context.Context, scope model.DisabledScope, rec model.DisabledRecord) error {
	return s.setJSON(ctx, s.keys.Disabled(scope), rec)
}

// ClearDisabled 删除禁用集合
func (s *Store) ClearDisabled(ctx context.Context, scope model.DisabledScope) error {
	key := s.keys.Disabled(scope)
	if err := s.kv.Remove(ctx, key); err != nil {
		return errors.StateWriteError(key, err)
	}
	return nil
}

// ActiveDisabled 返回仍在有效期内的禁用主机
// 过期记录会被顺手删除；删除失败只记录日志
func (s *Store) ActiveDisabled(ctx context.Context, scope model.DisabledScope, now time.Time, ttl time.Duration) ([]string, error) {
	rec, ok, err := s.Disabled(ctx, scope)
	if err != nil || !ok {
		return nil, err
	}
	if rec.ActiveAt(now, ttl) {
		return rec.Hosts, nil
	}
	if err := s.ClearDisabled(ctx, scope); err != nil {
		log.Printf("[WARN] 清理过期禁用记录失败 (%s): %v", scope, err)
	}
	return nil, nil
}

// getJSON 读取并解析JSON记录
// 无法解析的记录视为不存在
func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	val, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, errors.StateReadError(key, err)
	}
	if !ok {
		return false, nil
	}
	if err := util.UnmarshalString(val, v); err != nil {
		log.Printf("[WARN] 状态记录 %s 无法解析，按不存在处理: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := util.MarshalString(v)
	if err != nil {
		return errors.StateWriteError(key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return errors.StateWriteError(key, err)
	}
	return nil
}
