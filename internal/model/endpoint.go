package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PoolKind 端点池类型
type PoolKind string

const (
	PoolAPI           PoolKind = "api"            // API前缀池
	PoolImageProxy    PoolKind = "image_proxy"    // 图片代理池
	PoolDownloadProxy PoolKind = "download_proxy" // 下载代理池
)

// ProxyKinds 代理池类型（按配置顺序）
var ProxyKinds = []PoolKind{PoolImageProxy, PoolDownloadProxy}

// weightSumTolerance 权重和允许的浮点误差
const weightSumTolerance = 1e-6

// Endpoint 候选端点（API前缀或代理主机）
type Endpoint struct {
	ID     string  `json:"id" yaml:"id"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Validate 验证端点
// 副作用：会 trim 空白字符并写回 ID
func (e *Endpoint) Validate() error {
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		return errors.New("endpoint id cannot be empty")
	}
	if strings.ContainsAny(e.ID, "\x00\r\n") {
		return errors.New("endpoint id contains illegal characters")
	}
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
		return fmt.Errorf("endpoint %s: weight must be positive, got %v", e.ID, e.Weight)
	}
	return nil
}

// Pool 有序端点集合（ID唯一）
// 保留配置顺序：种子洗牌的结果依赖输入顺序
type Pool struct {
	Kind      PoolKind   `json:"kind"`
	Endpoints []Endpoint `json:"endpoints"`
}

// NewPool 创建端点池并校验ID唯一性
func NewPool(kind PoolKind, endpoints []Endpoint) (*Pool, error) {
	seen := make(map[string]struct{}, len(endpoints))
	out := make([]Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[ep.ID]; dup {
			return nil, fmt.Errorf("duplicate endpoint %s in pool %s", ep.ID, kind)
		}
		seen[ep.ID] = struct{}{}
		out = append(out, ep)
	}
	return &Pool{Kind: kind, Endpoints: out}, nil
}

// EndpointIDs 提取端点ID
func EndpointIDs(endpoints []Endpoint) []string {
	ids := make([]string, len(endpoints))
	for i, ep := range endpoints {
		ids[i] = ep.ID
	}
	return ids
}

// TotalWeight 计算权重总和
func TotalWeight(endpoints []Endpoint) float64 {
	total := 0.0
	for _, ep := range endpoints {
		total += ep.Weight
	}
	return total
}

// IsNormalized 权重和是否为1.0（允许浮点误差）
func IsNormalized(endpoints []Endpoint) bool {
	return math.Abs(TotalWeight(endpoints)-1.0) <= weightSumTolerance
}

// ResolvedEndpoint 解析结果
// 代替在共享配置对象上原地改写字段：解析器返回选择结果，由控制器持有
type ResolvedEndpoint struct {
	Value            string   `json:"value"`             // 当前选中的端点
	SourceCandidates []string `json:"source_candidates"` // 参与选择的候选（已过滤禁用）
	Sticky           bool     `json:"sticky"`            // 是否沿用已持久化的选择
}

// IsZero 是否尚未解析
func (r ResolvedEndpoint) IsZero() bool {
	return r.Value == ""
}
