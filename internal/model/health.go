package model

import "time"

// DisabledScope 禁用集合的作用域
// 图片代理与下载代理共用一个禁用集合
type DisabledScope string

const (
	ScopeAPI   DisabledScope = "api"
	ScopeProxy DisabledScope = "proxy"
)

// HealthRecord 上一次API检查结果
// 线上格式: {"pass": bool, "time": epoch-ms}
type HealthRecord struct {
	Pass bool  `json:"pass"`
	Time int64 `json:"time"`
}

// NewHealthRecord 以当前时间创建检查记录
func NewHealthRecord(pass bool, now time.Time) HealthRecord {
	return HealthRecord{Pass: pass, Time: now.UnixMilli()}
}

// At 记录时间
func (r HealthRecord) At() time.Time {
	return time.UnixMilli(r.Time)
}

// FailedWithin 记录为失败且距今不足 ttl
// 过期由调用方判断，存储层不带TTL
func (r HealthRecord) FailedWithin(now time.Time, ttl time.Duration) bool {
	return !r.Pass && now.Sub(r.At()) < ttl
}

// DisabledRecord 已禁用端点集合
// 线上格式: {"hosts": [string], "time": epoch-ms}
type DisabledRecord struct {
	Hosts []string `json:"hosts"`
	Time  int64    `json:"time"`
}

// NewDisabledRecord 以当前时间创建禁用记录
func NewDisabledRecord(hosts []string, now time.Time) DisabledRecord {
	return DisabledRecord{Hosts: append([]string(nil), hosts...), Time: now.UnixMilli()}
}

// At 记录时间
func (r DisabledRecord) At() time.Time {
	return time.UnixMilli(r.Time)
}

// ActiveAt 禁用记录在 now 时是否仍有效
func (r DisabledRecord) ActiveAt(now time.Time, ttl time.Duration) bool {
	return len(r.Hosts) > 0 && now.Sub(r.At()) < ttl
}
