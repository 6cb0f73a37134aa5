// Package schema 方言无关的建表语句构建
//
// 列定义以MySQL语法书写，SQLite侧做类型映射。
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect 数据库方言
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// TableBuilder 轻量级表构建器
type TableBuilder struct {
	name    string
	columns []string
	indexes []IndexDef
}

// IndexDef 索引定义
type IndexDef struct {
	Name    string
	Table   string
	Columns string
}

// NewTable 创建表构建器
func NewTable(name string) *TableBuilder {
	return &TableBuilder{name: name}
}

// Name 表名
func (b *TableBuilder) Name() string {
	return b.name
}

// Column 添加列定义（MySQL语法）
func (b *TableBuilder) Column(def string) *TableBuilder {
	b.columns = append(b.columns, def)
	return b
}

// Index 添加普通索引
func (b *TableBuilder) Index(name, columns string) *TableBuilder {
	b.indexes = append(b.indexes, IndexDef{Name: name, Table: b.name, Columns: columns})
	return b
}

// Build 生成指定方言的建表语句
func (b *TableBuilder) Build(dialect Dialect) string {
	columns := b.columns
	suffix := " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	if dialect == DialectSQLite {
		columns = make([]string, len(b.columns))
		for i, col := range b.columns {
			columns[i] = mysqlToSQLite(col)
		}
		suffix = ""
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)%s;",
		b.name, strings.Join(columns, ",\n\t"), suffix)
}

// Indexes 生成指定方言的索引语句
// MySQL不支持 CREATE INDEX IF NOT EXISTS，重复索引错误由迁移层忽略
func (b *TableBuilder) Indexes(dialect Dialect) []string {
	stmts := make([]string, len(b.indexes))
	for i, idx := range b.indexes {
		if dialect == DialectSQLite {
			stmts[i] = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.Name, idx.Table, idx.Columns)
		} else {
			stmts[i] = fmt.Sprintf("CREATE INDEX %s ON %s(%s)", idx.Name, idx.Table, idx.Columns)
		}
	}
	return stmts
}

var (
	varcharPattern = regexp.MustCompile(`VARCHAR\(\d+\)`)
	intPattern     = regexp.MustCompile(`\b(TINYINT|INT)\b`)
)

// mysqlToSQLite 类型转换（MySQL → SQLite）
func mysqlToSQLite(col string) string {
	col = strings.ReplaceAll(col, "INT PRIMARY KEY AUTO_INCREMENT", "INTEGER PRIMARY KEY AUTOINCREMENT")
	col = varcharPattern.ReplaceAllString(col, "TEXT")
	col = strings.ReplaceAll(col, "MEDIUMTEXT", "TEXT")
	col = strings.ReplaceAll(col, "DOUBLE", "REAL")
	// BIGINT 保持不变
	return intPattern.ReplaceAllString(col, "INTEGER")
}
