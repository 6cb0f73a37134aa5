package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// FakeTransport 可编程的探测传输层
// 按主机/前缀匹配URL返回预设状态码，未匹配的URL返回 Default
type FakeTransport struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	calls    []string
	gate     chan struct{}

	Default int
}

// NewFakeTransport 创建默认全部返回200的传输层
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		statuses: make(map[string]int),
		errs:     make(map[string]error),
		Default:  http.StatusOK,
	}
}

// SetStatus 设置包含 match 的URL返回的状态码
func (f *FakeTransport) SetStatus(match string, status int) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[match] = status
	delete(f.errs, match)
	return f
}

// Fail 设置包含 match 的URL返回 503
func (f *FakeTransport) Fail(matches ...string) *FakeTransport {
	for _, m := range matches {
		f.SetStatus(m, http.StatusServiceUnavailable)
	}
	return f
}

// SetError 设置包含 match 的URL返回传输错误
func (f *FakeTransport) SetError(match string, err error) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[match] = err
	return f
}

// Reset 清除所有预设
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = make(map[string]int)
	f.errs = make(map[string]error)
}

// Block 之后的请求阻塞到 Release 或 ctx 结束
func (f *FakeTransport) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

// Release 放行被阻塞的请求
func (f *FakeTransport) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Head 实现 probe.Transport
func (f *FakeTransport) Head(ctx context.Context, url string) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	gate := f.gate
	status, err := f.Default, error(nil)
	for match, s := range f.statuses {
		if strings.Contains(url, match) {
			status = s
		}
	}
	for match, e := range f.errs {
		if strings.Contains(url, match) {
			err = e
		}
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, err
	}
	return status, nil
}

// Calls 返回所有请求过的URL
func (f *FakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount 包含 match 的请求次数
func (f *FakeTransport) CallCount(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, url := range f.calls {
		if strings.Contains(url, match) {
			n++
		}
	}
	return n
}

