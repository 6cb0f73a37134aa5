package testutil

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

// CheckGoroutineLeak 检查测试执行期间是否有goroutine泄漏
// 使用方式：
//
//	defer testutil.CheckGoroutineLeak(t)()
func CheckGoroutineLeak(t *testing.T) func() {
	t.Helper()
	before := countRelevantGoroutines()

	return func() {
		t.Helper()

		deadline := time.Now().Add(time.Second)
		var after int
		for {
			runtime.GC()
			after = countRelevantGoroutines()
			if after <= before || time.Now().After(deadline) {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}

		if leaked := after - before; leaked > 0 {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			t.Errorf("Goroutine泄漏: %d 个\n\n当前goroutine堆栈:\n%s", leaked, buf[:n])
		}
	}
}

// countRelevantGoroutines 计算非测试框架、非连接池后台的goroutine数量
func countRelevantGoroutines() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)

	count := 0
	for _, stack := range strings.Split(string(buf[:n]), "\n\n") {
		if strings.TrimSpace(stack) == "" || isBackgroundGoroutine(stack) {
			continue
		}
		count++
	}
	return count
}

// isBackgroundGoroutine 测试框架、database/sql 连接池与 HTTP 空闲连接
func isBackgroundGoroutine(stack string) bool {
	for _, pattern := range []string{
		"testing.(*T).Run",
		"testing.tRunner",
		"testing.Main",
		"database/sql.(*DB).connectionOpener",
		"database/sql.(*DB).connectionCleaner",
		"net/http.(*persistConn)",
	} {
		if strings.Contains(stack, pattern) {
			return true
		}
	}
	return false
}
