package failover

import (
	"context"
	"net"
	"time"
)

// Connectivity 联网状态判断
type Connectivity interface {
	Online(ctx context.Context) bool
}

// ConnectivityFunc 函数适配器
type ConnectivityFunc func(ctx context.Context) bool

// Online 实现 Connectivity
func (f ConnectivityFunc) Online(ctx context.Context) bool {
	return f(ctx)
}

// AlwaysOnline 始终在线（禁用联网检测）
var AlwaysOnline Connectivity = ConnectivityFunc(func(context.Context) bool { return true })

// DialOracle 通过TCP拨号判断是否联网
type DialOracle struct {
	Addr    string
	Timeout time.Duration

	dialer net.Dialer
}

// NewDialOracle 创建拨号检测器
func NewDialOracle(addr string, timeout time.Duration) *DialOracle {
	return &DialOracle{Addr: addr, Timeout: timeout}
}

// Online 实现 Connectivity
func (d *DialOracle) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	conn, err := d.dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
