package resolver

import (
	"log"
	"slices"

	"lineLoad/internal/model"
	"lineLoad/internal/selector"
)

// ProxyPool 已定义的代理池（不可变）
// 固定主机时 Pick 总是返回该主机
type ProxyPool struct {
	Kind      model.PoolKind
	fixed     string
	endpoints []model.Endpoint
	index     *selector.Index
	filtered  bool
}

// Pick 按权重抽取一个主机
func (p *ProxyPool) Pick(src selector.Source) string {
	if p.index == nil {
		return p.fixed
	}
	return p.index.Pick(src)
}

// Fixed 固定主机（非加权池）
func (p *ProxyPool) Fixed() (string, bool) {
	return p.fixed, p.index == nil
}

// Weights 生效权重（已移除禁用主机）
func (p *ProxyPool) Weights() []model.Endpoint {
	return slices.Clone(p.endpoints)
}

// Hosts 生效主机
func (p *ProxyPool) Hosts() []string {
	if p.index == nil {
		return []string{p.fixed}
	}
	return model.EndpointIDs(p.endpoints)
}

// Filtered 是否移除过禁用主机
func (p *ProxyPool) Filtered() bool {
	return p.filtered
}

// Sequence 选择序列（诊断用），固定主机返回 nil
func (p *ProxyPool) Sequence() []string {
	if p.index == nil {
		return nil
	}
	return p.index.Sequence()
}

// ProxyHostResolver 代理池定义器
type ProxyHostResolver struct {
	shuffle func() selector.Source
}

// NewProxyHostResolver 创建代理池定义器
// 每次定义都从同一种子重新开始，保证相同权重得到相同序列
func NewProxyHostResolver(seed string) *ProxyHostResolver {
	if seed == "" {
		seed = selector.DefaultSeed
	}
	return &ProxyHostResolver{shuffle: selector.SeededFactory(seed)}
}

// Define 移除禁用主机、重新归一化并构建选择序列
// 全部主机被禁用时返回 POOL_EXHAUSTED，调用方应保留原有池
func (r *ProxyHostResolver) Define(kind model.PoolKind, spec model.HostSpec, disabled []string) (*ProxyPool, error) {
	if !spec.IsPool() {
		return &ProxyPool{Kind: kind, fixed: spec.Fixed}, nil
	}

	endpoints := slices.Clone(spec.Weights)
	filtered := false
	if len(disabled) > 0 {
		normalized, err := selector.Normalize(string(kind), endpoints, disabled)
		if err != nil {
			return nil, err
		}
		filtered = len(normalized) < len(endpoints)
		endpoints = normalized
	}

	index, err := selector.Build(string(kind), endpoints, r.shuffle())
	if err != nil {
		return nil, err
	}
	if filtered {
		log.Printf("[INFO] %s 代理池已重新定义: %d/%d 个主机可用", kind, len(endpoints), len(spec.Weights))
	}
	return &ProxyPool{Kind: kind, endpoints: endpoints, index: index, filtered: filtered}, nil
}
