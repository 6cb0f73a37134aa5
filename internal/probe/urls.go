package probe

import (
	"strings"
	"time"
)

// proxyProbePath 代理探测使用的固定原图路径
const proxyProbePath = "/img-original/img/2007/09/20/19/49/36/10000_p0.jpg"

// APIProbeURL 构造API前缀探测地址（日榜，指定日期）
func APIProbeURL(prefix string, day time.Time) string {
	return strings.TrimRight(prefix, "/") + "/rank?mode=day&date=" + day.Format(time.DateOnly)
}

// ProxyProbeURL 构造代理主机探测地址
// host 可带 scheme，缺省使用 https
func ProxyProbeURL(host string) string {
	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host + proxyProbePath
}
