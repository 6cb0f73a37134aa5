package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewRequest 创建 HTTP 请求
func NewRequest(method, target string, body []byte) *http.Request {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	return httptest.NewRequest(method, target, reader)
}

// NewAuthRequest 创建带 Bearer 认证头的请求
func NewAuthRequest(method, target, password string) *http.Request {
	req := NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+password)
	return req
}

// ServeHTTP 执行 HTTP 处理器并返回响应
func ServeHTTP(t testing.TB, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// APIResponse 通用 API 响应结构
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// MustParseAPIResponse 解析 API 响应，失败时终止测试
func MustParseAPIResponse[T any](t testing.TB, body []byte) APIResponse[T] {
	t.Helper()

	var resp APIResponse[T]
	if err := sonic.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal json failed: %v\nbody: %s", err, body)
	}
	return resp
}

// WaitForGoroutineDeltaLE 等待 goroutine 数量回落到基线+阈值以内
func WaitForGoroutineDeltaLE(t testing.TB, baseline int, maxDelta int, timeout time.Duration) int {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		runtime.GC()
		cur := runtime.NumGoroutine()
		if cur <= baseline+max(maxDelta, 0) || time.Now().After(deadline) {
			return cur
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// GetGoroutineBaseline 获取当前 goroutine 数量作为基线
func GetGoroutineBaseline() int {
	runtime.GC()
	return runtime.NumGoroutine()
}
