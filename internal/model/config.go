package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// EndpointConfig 端点配置（由宿主应用提供）
// 加载后不可变，选择结果由控制器以 ResolvedEndpoint / 代理池形式发布
type EndpointConfig struct {
	APIPrefix         PrefixSpec `json:"api_prefix" yaml:"api_prefix"`
	ImageProxyHost    HostSpec   `json:"image_proxy_host" yaml:"image_proxy_host"`
	DownloadProxyHost HostSpec   `json:"download_proxy_host" yaml:"download_proxy_host"`
}

// Validate 验证配置
func (c *EndpointConfig) Validate() error {
	if err := c.APIPrefix.Validate(); err != nil {
		return fmt.Errorf("api_prefix: %w", err)
	}
	for _, kind := range ProxyKinds {
		if err := c.hostSpecRef(kind).Validate(kind); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	return nil
}

// NormalizeWeights 将未归一化的代理权重缩放到和为1.0，返回被调整的池
func (c *EndpointConfig) NormalizeWeights() []PoolKind {
	var adjusted []PoolKind
	for _, kind := range ProxyKinds {
		spec := c.hostSpecRef(kind)
		if spec.Normalized() {
			continue
		}
		spec.Normalize()
		adjusted = append(adjusted, kind)
	}
	return adjusted
}

func (c *EndpointConfig) hostSpecRef(kind PoolKind) *HostSpec {
	if kind == PoolDownloadProxy {
		return &c.DownloadProxyHost
	}
	return &c.ImageProxyHost
}

// HostSpec 按池类型取代理配置
func (c *EndpointConfig) HostSpec(kind PoolKind) HostSpec {
	switch kind {
	case PoolImageProxy:
		return c.ImageProxyHost
	case PoolDownloadProxy:
		return c.DownloadProxyHost
	default:
		return HostSpec{}
	}
}

// ProxyHosts 图片与下载代理主机并集（去重，保持配置顺序）
// 固定主机不参与探测
func (c *EndpointConfig) ProxyHosts() []string {
	var hosts []string
	for _, kind := range ProxyKinds {
		for _, ep := range c.HostSpec(kind).Weights {
			if !slices.Contains(hosts, ep.ID) {
				hosts = append(hosts, ep.ID)
			}
		}
	}
	return hosts
}

// ============================================================================
// PrefixSpec
// ============================================================================

// PrefixSpec API前缀配置：单个固定前缀或候选列表
type PrefixSpec struct {
	Candidates []string `json:"candidates"`
	Fixed      bool     `json:"fixed"`
}

// FixedPrefix 构造固定前缀
func FixedPrefix(prefix string) PrefixSpec {
	return PrefixSpec{Candidates: []string{prefix}, Fixed: true}
}

// PrefixList 构造候选列表
func PrefixList(prefixes ...string) PrefixSpec {
	return PrefixSpec{Candidates: prefixes}
}

// Validate 验证前缀配置
// 副作用：trim 空白字符
func (p *PrefixSpec) Validate() error {
	if len(p.Candidates) == 0 {
		return errors.New("no api prefix configured")
	}
	if p.Fixed && len(p.Candidates) != 1 {
		return errors.New("fixed api prefix must have exactly one value")
	}
	seen := make(map[string]struct{}, len(p.Candidates))
	for i, prefix := range p.Candidates {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return errors.New("api prefix cannot be empty")
		}
		if _, dup := seen[prefix]; dup {
			return fmt.Errorf("duplicate api prefix %s", prefix)
		}
		seen[prefix] = struct{}{}
		p.Candidates[i] = prefix
	}
	return nil
}

// UnmarshalYAML 支持标量（固定前缀）或序列（候选列表）
func (p *PrefixSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*p = FixedPrefix(s)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*p = PrefixList(list...)
		return nil
	default:
		return fmt.Errorf("api_prefix: unsupported yaml node at line %d", node.Line)
	}
}

// MarshalJSON 固定前缀输出字符串，候选列表输出数组
func (p PrefixSpec) MarshalJSON() ([]byte, error) {
	if p.Fixed && len(p.Candidates) == 1 {
		return sonic.Marshal(p.Candidates[0])
	}
	return sonic.Marshal(p.Candidates)
}

// UnmarshalJSON 支持字符串或字符串数组
func (p *PrefixSpec) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*p = FixedPrefix(v)
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("api_prefix: non-string item %v", item)
			}
			list = append(list, s)
		}
		*p = PrefixList(list...)
	case nil:
		*p = PrefixSpec{}
	default:
		return fmt.Errorf("api_prefix: unsupported json value %T", raw)
	}
	return nil
}

// ============================================================================
// HostSpec
// ============================================================================

// HostSpec 代理主机配置：单个固定主机或有序 host->weight 映射
type HostSpec struct {
	Fixed   string     `json:"fixed,omitempty"`
	Weights []Endpoint `json:"weights,omitempty"`
}

// IsPool 是否为加权池（固定主机不探测、不过滤）
func (h HostSpec) IsPool() bool {
	return len(h.Weights) > 0
}

// IsEmpty 是否未配置
func (h HostSpec) IsEmpty() bool {
	return h.Fixed == "" && len(h.Weights) == 0
}

// Validate 验证代理配置
func (h *HostSpec) Validate(kind PoolKind) error {
	if !h.IsPool() {
		h.Fixed = strings.TrimSpace(h.Fixed)
		return nil
	}
	pool, err := NewPool(kind, h.Weights)
	if err != nil {
		return err
	}
	h.Weights = pool.Endpoints
	return nil
}

// Normalized 权重和是否为1.0
func (h HostSpec) Normalized() bool {
	return !h.IsPool() || IsNormalized(h.Weights)
}

// Normalize 将权重缩放到和为1.0
func (h *HostSpec) Normalize() {
	total := TotalWeight(h.Weights)
	if total <= 0 {
		return
	}
	for i := range h.Weights {
		h.Weights[i].Weight /= total
	}
}

// UnmarshalYAML 支持标量（固定主机）或映射（保持顺序）
func (h *HostSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*h = HostSpec{Fixed: s}
		return nil
	case yaml.MappingNode:
		weights := make([]Endpoint, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var host string
			var weight float64
			if err := node.Content[i].Decode(&host); err != nil {
				return err
			}
			if err := node.Content[i+1].Decode(&weight); err != nil {
				return fmt.Errorf("host %s: %w", host, err)
			}
			weights = append(weights, Endpoint{ID: host, Weight: weight})
		}
		*h = HostSpec{Weights: weights}
		return nil
	default:
		return fmt.Errorf("proxy host: unsupported yaml node at line %d", node.Line)
	}
}

// MarshalJSON 固定主机输出字符串，加权池输出 [{id,weight}] 数组（保持顺序）
func (h HostSpec) MarshalJSON() ([]byte, error) {
	if !h.IsPool() {
		return sonic.Marshal(h.Fixed)
	}
	return sonic.Marshal(h.Weights)
}

// UnmarshalJSON 支持字符串、对象或 [{id,weight}] 数组
// JSON对象无序，按主机名排序以保证洗牌确定性；需要自定义顺序时使用数组形式
func (h *HostSpec) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*h = HostSpec{Fixed: v}
	case map[string]any:
		hosts := make([]string, 0, len(v))
		for host := range v {
			hosts = append(hosts, host)
		}
		slices.Sort(hosts)
		weights := make([]Endpoint, 0, len(hosts))
		for _, host := range hosts {
			w, ok := v[host].(float64)
			if !ok {
				return fmt.Errorf("host %s: weight must be a number", host)
			}
			weights = append(weights, Endpoint{ID: host, Weight: w})
		}
		*h = HostSpec{Weights: weights}
	case []any:
		var weights []Endpoint
		if err := sonic.Unmarshal(data, &weights); err != nil {
			return err
		}
		*h = HostSpec{Weights: weights}
	case nil:
		*h = HostSpec{}
	default:
		return fmt.Errorf("proxy host: unsupported json value %T", raw)
	}
	return nil
}
