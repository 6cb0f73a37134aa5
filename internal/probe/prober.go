// Package probe 端点存活探测
//
// 单次探测：带超时的 HEAD 请求，状态码恰好为200视为存活，否则失败（不重试）。
// 批量探测：并发执行，等待全部结束，按输入顺序返回每个目标的结果。
package probe

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "lineLoad/internal/errors"
	"lineLoad/internal/model"

	"golang.org/x/sync/errgroup"
)

// Target 探测目标
type Target struct {
	Kind model.PoolKind // 所属池（仅用于指标与日志）
	ID   string         // 端点ID（前缀或主机名）
	URL  string         // 完整探测地址
}

// Result 单个目标的探测结果
type Result struct {
	Target Target
	Err    error // nil 表示存活
}

// OK 是否存活
func (r Result) OK() bool {
	return r.Err == nil
}

// Prober 健康探测器
type Prober struct {
	transport Transport
	timeout   time.Duration
}

// NewProber 创建探测器
func NewProber(transport Transport, timeout time.Duration) *Prober {
	return &Prober{transport: transport, timeout: timeout}
}

// Probe 探测单个目标
// 存活返回目标ID；失败返回 PROBE_FAILED（含状态码或底层错误）
func (p *Prober) Probe(ctx context.Context, target Target) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	status, err := p.transport.Head(ctx, target.URL)
	probeDuration.WithLabelValues(string(target.Kind)).Observe(time.Since(start).Seconds())

	if err == nil && status != http.StatusOK {
		err = errors.New(http.StatusText(status))
	}
	if err != nil {
		probeTotal.WithLabelValues(string(target.Kind), resultFailed).Inc()
		return "", apperrors.ProbeFailed(target.ID, target.URL, status, err)
	}

	probeTotal.WithLabelValues(string(target.Kind), resultAlive).Inc()
	return target.ID, nil
}

// ProbeAll 并发探测所有目标
// skip 中的ID直接以 PROBE_SKIPPED 失败结算，不发起网络请求。
// 单个目标失败不会中断其他探测。
func (p *Prober) ProbeAll(ctx context.Context, targets []Target, skip []string) []Result {
	results := make([]Result, len(targets))

	skipped := make(map[string]struct{}, len(skip))
	for _, id := range skip {
		skipped[id] = struct{}{}
	}

	// 不使用 errgroup.WithContext：一个失败不应取消其余探测
	var g errgroup.Group
	for i, target := range targets {
		results[i].Target = target
		if _, ok := skipped[target.ID]; ok {
			probeTotal.WithLabelValues(string(target.Kind), resultSkipped).Inc()
			results[i].Err = apperrors.ProbeSkipped(target.ID)
			continue
		}
		g.Go(func() error {
			_, err := p.Probe(ctx, target)
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Alive 存活目标ID（保持输入顺序）
func Alive(results []Result) []string {
	var ids []string
	for _, r := range results {
		if r.OK() {
			ids = append(ids, r.Target.ID)
		}
	}
	return ids
}

// Failed 失败目标ID（含跳过，保持输入顺序）
func Failed(results []Result) []string {
	var ids []string
	for _, r := range results {
		if !r.OK() {
			ids = append(ids, r.Target.ID)
		}
	}
	return ids
}

// APITargets 为API前缀列表构造探测目标（当天日榜）
func APITargets(prefixes []string, now time.Time) []Target {
	targets := make([]Target, len(prefixes))
	for i, prefix := range prefixes {
		targets[i] = Target{Kind: model.PoolAPI, ID: prefix, URL: APIProbeURL(prefix, now)}
	}
	return targets
}

// ProxyTargets 为代理主机列表构造探测目标
func ProxyTargets(hosts []string) []Target {
	targets := make([]Target, len(hosts))
	for i, host := range hosts {
		targets[i] = Target{Kind: model.PoolKind(model.ScopeProxy), ID: host, URL: ProxyProbeURL(host)}
	}
	return targets
}
