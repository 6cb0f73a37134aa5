// Package sql 基于 database/sql 的端点状态存储（SQLite / MySQL）
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lineLoad/internal/storage/schema"
)

// SQLStore 通用SQL存储实现
// SQLite 与 MySQL 仅 upsert 语法不同
type SQLStore struct {
	db *sql.DB

	upsertSQL string
}

// NewSQLStore 创建通用SQL存储实例
// db: 数据库连接（由调用方初始化并完成迁移）
func NewSQLStore(db *sql.DB, dialect schema.Dialect) *SQLStore {
	s := &SQLStore{db: db}
	if dialect == schema.DialectMySQL {
		s.upsertSQL = `INSERT INTO endpoint_state (state_key, value, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`
	} else {
		s.upsertSQL = `INSERT INTO endpoint_state (state_key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(state_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	}
	return s
}

// DB 底层连接（迁移与测试使用）
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Get 读取键值
// 不存在时返回 ok=false, err=nil
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := withBusyRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT value FROM endpoint_state WHERE state_key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query state %s: %w", key, err)
	}
	return value, true, nil
}

// Set 写入键值（覆盖）
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	now := time.Now().UnixMilli()
	err := withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, s.upsertSQL, key, value, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert state %s: %w", key, err)
	}
	return nil
}

// Remove 删除键（不存在时不报错）
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	err := withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM endpoint_state WHERE state_key = ?", key)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

// Ping 连通性检查
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
