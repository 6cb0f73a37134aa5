package sql

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	busyMaxRetries = 6
	busyBaseDelay  = 25 * time.Millisecond
)

// withBusyRetry 对 SQLite BUSY/LOCKED 错误做指数退避重试
// 非BUSY错误立即返回；context 取消或 deadline 不足时提前退出
//
// 重试时间轴（抖动前）: 25ms, 50ms, 100ms, 200ms, 400ms
func withBusyRetry(ctx context.Context, fn func() error) error {
	deadline, hasDeadline := ctx.Deadline()

	var err error
	for attempt := range busyMaxRetries {
		err = fn()
		if err == nil || !isSQLiteBusyError(err) {
			return err
		}
		if attempt == busyMaxRetries-1 {
			break
		}

		delay := calculateBackoffDelay(attempt, busyBaseDelay)
		if hasDeadline && time.Now().Add(delay).After(deadline) {
			return fmt.Errorf("aborted: context deadline would be exceeded (attempted %d retries): %w", attempt+1, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cancelled after %d retries: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("failed after %d retries: %w", busyMaxRetries, err)
}

// isSQLiteBusyError 检测是否是SQLite的BUSY/LOCKED错误
func isSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"database is locked",
		"database is deadlocked",
		"database table is locked",
		"sqlite_busy",
		"sqlite_locked",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// calculateBackoffDelay 计算指数退避延迟（带随机抖动）
// delay = baseDelay * 2^attempt * [0.5, 1.0)
func calculateBackoffDelay(attempt int, baseDelay time.Duration) time.Duration {
	delay := baseDelay * time.Duration(1<<uint(attempt))
	return time.Duration(float64(delay) * (0.5 + 0.5*rand.Float64()))
}
