package errors

import (
	"fmt"
)

// ErrorCode 错误代码类型（便于机器识别和监控）
type ErrorCode string

const (
	// 探测相关错误
	ErrCodeProbeFailed  ErrorCode = "PROBE_FAILED"  // 存活探测失败（传输错误、超时、非200）
	ErrCodeProbeSkipped ErrorCode = "PROBE_SKIPPED" // 本轮被排除，未发起探测

	// 端点池相关错误
	ErrCodeEmptyPool           ErrorCode = "EMPTY_POOL"            // 权重截断后选择序列为空
	ErrCodePoolExhausted       ErrorCode = "POOL_EXHAUSTED"        // 禁用后池内无剩余端点
	ErrCodeNoEndpointAvailable ErrorCode = "NO_ENDPOINT_AVAILABLE" // 全量检查后所有端点均不可用
	ErrCodeNotResolved         ErrorCode = "NOT_RESOLVED"          // 尚未选出当前端点

	// 网络状态错误
	ErrCodeOffline ErrorCode = "OFFLINE" // 连通性探测报告离线

	// 状态存储错误
	ErrCodeStateRead  ErrorCode = "STATE_READ"  // 状态读取失败
	ErrCodeStateWrite ErrorCode = "STATE_WRITE" // 状态写入失败

	// 配置相关错误
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG" // 配置无效
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG" // 配置缺失
)

// AppError 应用级错误结构（支持错误链和上下文信息）
type AppError struct {
	Code    ErrorCode      // 错误代码（机器可识别）
	Message string         // 错误消息（人类可读）
	Err     error          // 底层错误（支持错误链）
	Context map[string]any // 错误上下文（便于调试和监控）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链（Go 1.13+）
func (e *AppError) Unwrap() error {
	return e.Err
}

// ============== 探测错误工厂函数 ==============

// ProbeFailed 存活探测失败
// statusCode 为0表示未拿到响应（传输错误或超时）
func ProbeFailed(id, url string, statusCode int, err error) *AppError {
	msg := fmt.Sprintf("alive check failed for %s", id)
	if statusCode != 0 {
		msg = fmt.Sprintf("alive check failed for %s, status %d", id, statusCode)
	}
	return &AppError{
		Code:    ErrCodeProbeFailed,
		Message: msg,
		Err:     err,
		Context: map[string]any{"id": id, "url": url, "status": statusCode},
	}
}

// ProbeSkipped 本轮检查中被排除的端点
func ProbeSkipped(id string) *AppError {
	return &AppError{
		Code:    ErrCodeProbeSkipped,
		Message: fmt.Sprintf("%s skipped", id),
		Context: map[string]any{"id": id},
	}
}

// ============== 端点池错误工厂函数 ==============

// EmptyPool 选择序列为空（所有权重截断为0）
func EmptyPool(pool string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyPool,
		Message: fmt.Sprintf("selection sequence of pool %s is empty", pool),
		Context: map[string]any{"pool": pool},
	}
}

// PoolExhausted 禁用后池内无剩余端点
func PoolExhausted(pool string, disabled int) *AppError {
	return &AppError{
		Code:    ErrCodePoolExhausted,
		Message: fmt.Sprintf("all endpoints of pool %s are disabled", pool),
		Context: map[string]any{"pool": pool, "disabled": disabled},
	}
}

// NoEndpointAvailable 全量检查后无可用端点
func NoEndpointAvailable(pool string, checked int) *AppError {
	return &AppError{
		Code:    ErrCodeNoEndpointAvailable,
		Message: fmt.Sprintf("none of %d endpoints in pool %s is available", checked, pool),
		Context: map[string]any{"pool": pool, "checked": checked},
	}
}

// NotResolved 当前端点尚未选出
func NotResolved(pool string) *AppError {
	return &AppError{
		Code:    ErrCodeNotResolved,
		Message: fmt.Sprintf("pool %s has no resolved endpoint", pool),
		Context: map[string]any{"pool": pool},
	}
}

// Offline 设备离线
func Offline() *AppError {
	return &AppError{
		Code:    ErrCodeOffline,
		Message: "device is not online",
	}
}

// ============== 状态存储错误工厂函数 ==============

// StateReadError 状态读取失败
func StateReadError(key string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStateRead,
		Message: fmt.Sprintf("read state %s failed", key),
		Err:     err,
		Context: map[string]any{"key": key},
	}
}

// StateWriteError 状态写入失败
func StateWriteError(key string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStateWrite,
		Message: fmt.Sprintf("write state %s failed", key),
		Err:     err,
		Context: map[string]any{"key": key},
	}
}

// ============== 配置错误工厂函数 ==============

// InvalidConfigError 配置无效
func InvalidConfigError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("invalid config field '%s': %s", field, reason),
		Context: map[string]any{"field": field, "reason": reason},
	}
}

// MissingConfigError 配置缺失
func MissingConfigError(field string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("missing required config field: %s", field),
		Context: map[string]any{"field": field},
	}
}

// ============== 工具函数 ==============

// AsAppError 沿错误链查找AppError
func AsAppError(err error) (*AppError, bool) {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// GetErrorCode 获取错误代码（如果是AppError）
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HasErrorCode 判断错误是否为特定错误代码
func HasErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
