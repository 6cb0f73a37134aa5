// Package selector 提供确定性加权随机选择
//
// 选择序列构建方式：每个端点按 floor(weight*100) 次展开，再用固定种子洗牌一次；
// 每次选择从序列中均匀抽取一个元素（非固定种子）。
package selector

import (
	"math"
	"slices"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
)

// WeightScale 权重放大倍数（截断取整）
const WeightScale = 100

// Index 预计算的选择序列
// 构建后只读，可并发 Pick
type Index struct {
	ids []string // 端点ID（配置顺序）
	seq []int    // 洗牌后的序列，元素为 ids 下标
}

// Build 构建选择序列
// shuffle: 固定种子随机源；权重无需预先归一化，按比例解释
func Build(pool string, endpoints []model.Endpoint, shuffle Source) (*Index, error) {
	ids := make([]string, len(endpoints))
	seq := make([]int, 0, WeightScale)
	for i, ep := range endpoints {
		ids[i] = ep.ID
		n := int(math.Floor(ep.Weight * WeightScale))
		for range n {
			seq = append(seq, i)
		}
	}

	// 所有权重截断为0：显式失败，不允许空序列
	if len(seq) == 0 {
		return nil, errors.EmptyPool(pool)
	}

	// Fisher-Yates
	for i := len(seq) - 1; i > 0; i-- {
		j := shuffle.IntN(i + 1)
		seq[i], seq[j] = seq[j], seq[i]
	}

	return &Index{ids: ids, seq: seq}, nil
}

// Pick 均匀抽取一个端点
func (x *Index) Pick(src Source) string {
	return x.ids[x.seq[src.IntN(len(x.seq))]]
}

// Len 序列长度
func (x *Index) Len() int {
	return len(x.seq)
}

// Sequence 返回展开后的ID序列副本（用于诊断）
func (x *Index) Sequence() []string {
	out := make([]string, len(x.seq))
	for i, idx := range x.seq {
		out[i] = x.ids[idx]
	}
	return out
}

// Counts 每个端点在序列中出现的次数
func (x *Index) Counts() map[string]int {
	counts := make(map[string]int, len(x.ids))
	for _, idx := range x.seq {
		counts[x.ids[idx]]++
	}
	return counts
}

// Choose 构建序列并抽取一次
func Choose(pool string, endpoints []model.Endpoint, shuffle, src Source) (string, error) {
	idx, err := Build(pool, endpoints, shuffle)
	if err != nil {
		return "", err
	}
	return idx.Pick(src), nil
}

// Normalize 移除禁用端点并将剩余权重缩放到和为1.0
// 全部被禁用时返回 POOL_EXHAUSTED，不返回空池
func Normalize(pool string, endpoints []model.Endpoint, disabled []string) ([]model.Endpoint, error) {
	remaining := make([]model.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if slices.Contains(disabled, ep.ID) {
			continue
		}
		remaining = append(remaining, ep)
	}
	if len(remaining) == 0 {
		return nil, errors.PoolExhausted(pool, len(endpoints))
	}

	total := model.TotalWeight(remaining)
	if total <= 0 {
		return nil, errors.EmptyPool(pool)
	}
	for i := range remaining {
		remaining[i].Weight /= total
	}
	return remaining, nil
}

// PickUniform 在候选中等概率选择
func PickUniform(pool string, ids []string, src Source) (string, error) {
	if len(ids) == 0 {
		return "", errors.EmptyPool(pool)
	}
	return ids[src.IntN(len(ids))], nil
}
