package config

import "time"

// HTTP服务器配置常量
const (
	// DefaultPort 默认监听端口
	DefaultPort = "8080"

	// DefaultTriggerRPS 管理端手动检查触发的速率上限（次/秒）
	DefaultTriggerRPS = 1

	// DefaultTriggerBurst 手动检查触发突发容量
	DefaultTriggerBurst = 3

	// ShutdownTimeout 优雅关闭等待时间
	ShutdownTimeout = 10 * time.Second
)

// HTTP客户端配置常量（探测用）
const (
	// HTTPDialTimeout DNS解析+TCP连接建立超时
	// 探测总时长仍受 DefaultProbeTimeout 约束
	HTTPDialTimeout = 5 * time.Second

	// HTTPKeepAliveInterval TCP keepalive间隔
	HTTPKeepAliveInterval = 15 * time.Second

	// HTTPTLSHandshakeTimeout TLS握手超时
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPIdleConnTimeout 空闲连接超时
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPMaxIdleConns 全局空闲连接池大小
	HTTPMaxIdleConns = 100

	// HTTPMaxIdleConnsPerHost 单host空闲连接数
	HTTPMaxIdleConnsPerHost = 2

	// HTTPMaxConnsPerHost 单host最大连接数
	HTTPMaxConnsPerHost = 10

	// TLSSessionCacheSize TLS会话缓存大小
	TLSSessionCacheSize = 256
)

// 健康检查配置常量
const (
	// DefaultProbeTimeout 单次探测超时（秒）
	DefaultProbeTimeout = 5

	// DefaultCheckInterval 周期检查间隔（秒），0 表示仅启动时检查一次
	DefaultCheckInterval = 600

	// DefaultStateTTLHours 失败记录与禁用集合的有效期（小时）
	DefaultStateTTLHours = 24

	// DefaultConnectivityAddr 联网检测拨号地址
	DefaultConnectivityAddr = "1.1.1.1:443"

	// ConnectivityDialTimeout 联网检测拨号超时
	ConnectivityDialTimeout = 2 * time.Second

	// DefaultEventHistory 保留的最近通知条数
	DefaultEventHistory = 50

	// ConfigReloadDebounce 配置文件变更去抖间隔
	ConfigReloadDebounce = 500 * time.Millisecond
)

// 状态存储配置常量
const (
	// DefaultStateNamespace 状态键前缀
	DefaultStateNamespace = "pixiviz"

	// DefaultEndpointsFile 端点配置文件
	DefaultEndpointsFile = "config/endpoints.yaml"

	// DefaultSQLitePath SQLite 默认路径
	DefaultSQLitePath = "data/lineload.db"

	// RedisKeyPrefix Redis键前缀
	RedisKeyPrefix = "lineload:state:"

	// StateOpTimeout 单次状态读写超时
	StateOpTimeout = 3 * time.Second
)

// SQLite连接池配置常量
const (
	// SQLiteConnMaxLifetime 连接最大生命周期
	SQLiteConnMaxLifetime = 5 * time.Minute

	// MySQLMaxOpenConns MySQL最大连接数（状态表读写量很小）
	MySQLMaxOpenConns = 4

	// MySQLMaxIdleConns MySQL最大空闲连接数
	MySQLMaxIdleConns = 2

	// StartupDBPingTimeout 启动时数据库连通性检查超时
	StartupDBPingTimeout = 10 * time.Second

	// StartupMigrationTimeout 启动时迁移超时
	StartupMigrationTimeout = 30 * time.Second
)

// SecondsToDuration 秒数转 time.Duration
func SecondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// 状态存储后端
const (
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"
)
