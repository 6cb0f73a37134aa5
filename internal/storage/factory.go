package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"lineLoad/internal/config"
	redisstore "lineLoad/internal/storage/redis"
	"lineLoad/internal/storage/schema"
	sqlstore "lineLoad/internal/storage/sql"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// NewStore 根据配置创建存储实例（工厂模式）
//
// 三种后端（按优先级）：
//   - Redis：REDIS_URL 设置（多实例共享状态）
//   - MySQL：LINELOAD_MYSQL 设置
//   - SQLite：默认，单机部署
func NewStore(cfg *config.EnvConfig) (KVStore, error) {
	switch cfg.StoreKind() {
	case config.StoreRedis:
		store, err := redisstore.NewRedisStore(cfg.RedisURL, config.RedisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("redis 初始化失败: %w", err)
		}
		log.Print("[INFO] 使用 Redis 存储端点状态")
		return store, nil
	case config.StoreMySQL:
		store, err := createMySQLStore(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("MySQL 初始化失败: %w", err)
		}
		log.Print("[INFO] 使用 MySQL 存储端点状态")
		return store, nil
	}

	dbPath := cfg.SQLitePath
	if dbPath == "" {
		dbPath = resolveSQLitePath()
	}
	store, err := createSQLiteStore(dbPath, cfg.JournalMode)
	if err != nil {
		return nil, fmt.Errorf("SQLite 初始化失败: %w", err)
	}
	log.Printf("[INFO] 使用 SQLite 存储端点状态: %s", dbPath)
	return store, nil
}

// createMySQLStore 创建 MySQL 存储实例
func createMySQLStore(dsn string) (*sqlstore.SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开MySQL连接失败: %w", err)
	}

	db.SetMaxOpenConns(config.MySQLMaxOpenConns)
	db.SetMaxIdleConns(config.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(config.SQLiteConnMaxLifetime)

	// 测试连接（带超时，Fail-Fast）
	pingCtx, pingCancel := context.WithTimeout(context.Background(), config.StartupDBPingTimeout)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("MySQL连接测试失败（超时%v）: %w", config.StartupDBPingTimeout, err)
	}

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), config.StartupMigrationTimeout)
	defer migrateCancel()
	if err := migrate(migrateCtx, db, schema.DialectMySQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("MySQL迁移失败（超时%v）: %w", config.StartupMigrationTimeout, err)
	}

	return sqlstore.NewSQLStore(db, schema.DialectMySQL), nil
}

// CreateSQLiteStore 直接创建 SQLite 存储实例（测试辅助函数）
// 生产代码应使用 NewStore() 工厂函数
func CreateSQLiteStore(path string) (KVStore, error) {
	s, err := createSQLiteStore(path, "")
	if err != nil {
		return nil, err
	}
	return s, nil
}

// createSQLiteStore 内部函数，返回具体类型
func createSQLiteStore(path, journalMode string) (*sqlstore.SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { //nolint:gosec // G301: 数据目录需要服务进程可写
		return nil, err
	}

	mode, err := validateJournalMode(journalMode)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", buildSQLiteDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("打开SQLite失败: %w", err)
	}

	// 单连接：由 database/sql 串行化所有写入
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(config.SQLiteConnMaxLifetime)

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), config.StartupMigrationTimeout)
	defer migrateCancel()
	if err := migrate(migrateCtx, db, schema.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("SQLite迁移失败（超时%v）: %w", config.StartupMigrationTimeout, err)
	}

	return sqlstore.NewSQLStore(db, schema.DialectSQLite), nil
}

// resolveSQLitePath 解析SQLite数据库路径（未设置SQLITE_PATH时调用）
// 优先使用默认路径，目录不可写则回退到系统临时目录
func resolveSQLitePath() string {
	defaultPath := config.DefaultSQLitePath
	defaultDir := filepath.Dir(defaultPath)

	if isDirWritable(defaultDir) {
		return defaultPath
	}
	if err := os.MkdirAll(defaultDir, 0o750); err == nil && isDirWritable(defaultDir) {
		return defaultPath
	}

	tmpPath := filepath.Join(os.TempDir(), "lineload", filepath.Base(defaultPath))
	log.Printf("[WARN] 默认路径 %s 不可写，端点状态将存储在临时目录: %s", defaultDir, tmpPath)
	log.Printf("[WARN] 临时目录数据可能在系统重启后丢失，生产环境请设置 SQLITE_PATH")
	return tmpPath
}

// isDirWritable 检查目录是否存在且可写
func isDirWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}

	testFile := filepath.Join(dir, fmt.Sprintf(".write_test_%d", os.Getpid()))
	f, err := os.Create(testFile) //nolint:gosec // G304: 路径由程序控制
	if err != nil {
		return false
	}
	_ = f.Close()
	_ = os.Remove(testFile)
	return true
}

// buildSQLiteDSN 构建SQLite DSN
func buildSQLiteDSN(path, journalMode string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(%s)", path, journalMode)
}

// validateJournalMode 验证 SQLITE_JOURNAL_MODE（白名单）
func validateJournalMode(mode string) (string, error) {
	if mode == "" {
		return "WAL", nil
	}
	switch upper := strings.ToUpper(mode); upper {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
		return upper, nil
	default:
		return "", fmt.Errorf("SQLITE_JOURNAL_MODE 非法: %q（允许: DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF）", mode)
	}
}
