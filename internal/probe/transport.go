package probe

import (
	"context"
	"crypto/tls"
	"io"
	"log"
	"net"
	"net/http"

	"lineLoad/internal/config"
)

// Transport 发起单次 HEAD 请求
// 返回HTTP状态码；网络错误、DNS失败、上下文取消均以 error 返回
type Transport interface {
	Head(ctx context.Context, url string) (int, error)
}

// TransportFunc 函数适配器
type TransportFunc func(ctx context.Context, url string) (int, error)

// Head 实现 Transport
func (f TransportFunc) Head(ctx context.Context, url string) (int, error) {
	return f(ctx, url)
}

// HTTPTransport 基于 net/http 的探测传输层
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport 创建探测用HTTP客户端
// skipTLSVerify 仅用于开发环境
func NewHTTPTransport(skipTLSVerify bool) *HTTPTransport {
	if skipTLSVerify {
		log.Print("[WARN] TLS证书验证已禁用（LINELOAD_SKIP_TLS_VERIFY=true），仅用于开发/测试环境")
	}

	dialer := &net.Dialer{
		Timeout:   config.HTTPDialTimeout,
		KeepAlive: config.HTTPKeepAliveInterval,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        config.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: config.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     config.HTTPMaxConnsPerHost,
		IdleConnTimeout:     config.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: config.HTTPTLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			ClientSessionCache: tls.NewLRUClientSessionCache(config.TLSSessionCacheSize),
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: skipTLSVerify, //nolint:gosec // G402: 显式开关，默认关闭
		},
	}

	return NewHTTPTransportWithClient(&http.Client{
		Transport: transport,
		// 不跟随重定向：状态码必须恰好为200才算存活
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})
}

// NewHTTPTransportWithClient 使用自定义客户端（测试注入 httptest 客户端）
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// Head 实现 Transport
func (t *HTTPTransport) Head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	// HEAD 无响应体，drain 以复用连接
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
