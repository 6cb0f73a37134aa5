package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig 统一环境变量配置结构
type EnvConfig struct {
	// 服务配置
	Port       string
	GinMode    string
	Password   string
	TriggerRPS int // 手动触发检查的限流（每秒）

	// 状态存储（优先级：Redis > MySQL > SQLite）
	SQLitePath     string
	JournalMode    string
	MySQLDSN       string
	RedisURL       string
	StateNamespace string

	// 端点与检查
	EndpointsFile    string
	WatchConfig      bool
	ShuffleSeed      string
	ProbeTimeout     int // 秒
	CheckInterval    int // 秒，0 表示只在启动时检查
	StateTTLHours    int
	ConnectivityAddr string // 空表示不做联网检测
	SkipTLSVerify    bool
}

// LoadFromEnv 从环境变量加载配置并验证
func LoadFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}

	// 服务配置
	cfg.Port = getEnvOrDefault("PORT", DefaultPort)
	cfg.GinMode = os.Getenv("GIN_MODE")
	cfg.Password = os.Getenv("LINELOAD_PASS")

	// 管理接口必须设置密码
	if cfg.Password == "" {
		return nil, fmt.Errorf("LINELOAD_PASS 环境变量未设置（管理接口必须配置密码）")
	}
	cfg.TriggerRPS = getIntEnv("LINELOAD_TRIGGER_RPS", DefaultTriggerRPS)

	// 状态存储
	cfg.SQLitePath = os.Getenv("SQLITE_PATH") // 空则由存储层解析默认路径
	cfg.JournalMode = getEnvOrDefault("SQLITE_JOURNAL_MODE", "WAL")
	cfg.MySQLDSN = os.Getenv("LINELOAD_MYSQL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.StateNamespace = getEnvOrDefault("LINELOAD_STATE_NAMESPACE", DefaultStateNamespace)

	// 端点与检查
	cfg.EndpointsFile = getEnvOrDefault("LINELOAD_ENDPOINTS", DefaultEndpointsFile)
	cfg.WatchConfig = getBoolEnv("LINELOAD_WATCH_CONFIG", true)
	cfg.ShuffleSeed = os.Getenv("LINELOAD_SHUFFLE_SEED")
	cfg.ProbeTimeout = getIntEnv("LINELOAD_PROBE_TIMEOUT", DefaultProbeTimeout)
	cfg.CheckInterval = getNonNegativeIntEnv("LINELOAD_CHECK_INTERVAL", DefaultCheckInterval)
	cfg.StateTTLHours = getIntEnv("LINELOAD_STATE_TTL_HOURS", DefaultStateTTLHours)
	cfg.ConnectivityAddr = getEnvOrDefault("LINELOAD_CONNECTIVITY_ADDR", DefaultConnectivityAddr)
	if strings.EqualFold(cfg.ConnectivityAddr, "off") {
		cfg.ConnectivityAddr = ""
	}
	cfg.SkipTLSVerify = getBoolEnv("LINELOAD_SKIP_TLS_VERIFY", false)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return cfg, nil
}

// Validate 验证配置合法性
func (c *EnvConfig) Validate() error {
	port := strings.TrimPrefix(c.Port, ":")
	if portNum, err := strconv.Atoi(port); err != nil || portNum < 1 || portNum > 65535 {
		return fmt.Errorf("无效端口号: %s", c.Port)
	}

	if c.ProbeTimeout < 1 || c.ProbeTimeout > 60 {
		return fmt.Errorf("ProbeTimeout 超出合理范围 [1s, 60s]: %d", c.ProbeTimeout)
	}
	if c.CheckInterval != 0 && c.CheckInterval < 10 {
		return fmt.Errorf("CheckInterval 过短（最少10s，0 表示关闭周期检查）: %d", c.CheckInterval)
	}
	if c.StateTTLHours < 1 || c.StateTTLHours > 24*30 {
		return fmt.Errorf("StateTTLHours 超出合理范围 [1, 720]: %d", c.StateTTLHours)
	}
	if c.TriggerRPS < 1 || c.TriggerRPS > 1000 {
		return fmt.Errorf("TriggerRPS 超出合理范围 [1, 1000]: %d", c.TriggerRPS)
	}
	if strings.TrimSpace(c.StateNamespace) == "" {
		return fmt.Errorf("StateNamespace 不能为空")
	}
	if strings.TrimSpace(c.EndpointsFile) == "" {
		return fmt.Errorf("EndpointsFile 不能为空")
	}
	return nil
}

// StoreKind 生效的状态存储后端（redis > mysql > sqlite）
func (c *EnvConfig) StoreKind() string {
	switch {
	case c.RedisURL != "":
		return StoreRedis
	case c.MySQLDSN != "":
		return StoreMySQL
	default:
		return StoreSQLite
	}
}

// ListenAddr gin 监听地址
func (c *EnvConfig) ListenAddr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// ProbeTimeoutDuration 单次探测超时
func (c *EnvConfig) ProbeTimeoutDuration() time.Duration {
	return SecondsToDuration(c.ProbeTimeout)
}

// CheckIntervalDuration 周期检查间隔
func (c *EnvConfig) CheckIntervalDuration() time.Duration {
	return SecondsToDuration(c.CheckInterval)
}

// StateTTL 失败记录与禁用集合有效期
func (c *EnvConfig) StateTTL() time.Duration {
	return time.Duration(c.StateTTLHours) * time.Hour
}

// 辅助函数：获取环境变量或默认值
func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// 辅助函数：获取整数环境变量
func getIntEnv(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultValue
}

// 辅助函数：获取非负整数环境变量（允许0）
func getNonNegativeIntEnv(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil && intVal >= 0 {
			return intVal
		}
	}
	return defaultValue
}

// 辅助函数：获取布尔环境变量
func getBoolEnv(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "1" || strings.EqualFold(val, "true") {
		return true
	}
	if val == "0" || strings.EqualFold(val, "false") {
		return false
	}
	return defaultValue
}
