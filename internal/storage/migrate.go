package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lineLoad/internal/storage/schema"
)

// migrate 统一迁移逻辑：建表 + 建索引（幂等）
func migrate(ctx context.Context, db *sql.DB, dialect schema.Dialect) error {
	tables := []func() *schema.TableBuilder{
		schema.DefineEndpointStateTable,
	}

	for _, defineTable := range tables {
		tb := defineTable()

		if _, err := db.ExecContext(ctx, tb.Build(dialect)); err != nil {
			return fmt.Errorf("create %s table: %w", tb.Name(), err)
		}

		for _, stmt := range tb.Indexes(dialect) {
			if err := createIndex(ctx, db, stmt, dialect); err != nil {
				return fmt.Errorf("create %s index: %w", tb.Name(), err)
			}
		}
	}
	return nil
}

func createIndex(ctx context.Context, db *sql.DB, stmt string, dialect schema.Dialect) error {
	_, err := db.ExecContext(ctx, stmt)
	if err == nil {
		return nil
	}
	// MySQL不支持 IF NOT EXISTS，忽略重复索引错误
	if dialect == schema.DialectMySQL && strings.Contains(err.Error(), "Duplicate key name") {
		return nil
	}
	return err
}
