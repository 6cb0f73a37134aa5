// Package resolver 从候选池中解析当前生效的端点
package resolver

import (
	"context"
	"log"
	"slices"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
	"lineLoad/internal/selector"
	"lineLoad/internal/state"
)

// PrefixResolver API前缀解析器
//
// 策略：已持久化的首选前缀仍在（过滤后的）候选中则沿用；
// 否则在剩余候选中等概率选择一个并持久化。
type PrefixResolver struct {
	store *state.Store
	src   selector.Source
}

// NewPrefixResolver 创建前缀解析器
// src 为 nil 时使用非固定种子随机源
func NewPrefixResolver(store *state.Store, src selector.Source) *PrefixResolver {
	if src == nil {
		src = selector.RandomSource()
	}
	return &PrefixResolver{store: store, src: src}
}

// Resolve 解析当前API前缀
// 持久化失败只记录日志，不影响解析结果
func (r *PrefixResolver) Resolve(ctx context.Context, spec model.PrefixSpec, disabled []string) (model.ResolvedEndpoint, error) {
	if len(spec.Candidates) == 0 {
		return model.ResolvedEndpoint{}, errors.EmptyPool(string(model.PoolAPI))
	}

	// 固定前缀：不过滤、不选择，只持久化
	if spec.Fixed {
		prefix := spec.Candidates[0]
		r.persist(ctx, prefix)
		return model.ResolvedEndpoint{Value: prefix, SourceCandidates: []string{prefix}}, nil
	}

	candidates := spec.Candidates
	if len(disabled) > 0 {
		candidates = slices.DeleteFunc(slices.Clone(spec.Candidates), func(p string) bool {
			return slices.Contains(disabled, p)
		})
	}
	if len(candidates) == 0 {
		return model.ResolvedEndpoint{}, errors.PoolExhausted(string(model.PoolAPI), len(disabled))
	}

	stored, ok, err := r.store.PreferredPrefix(ctx)
	if err != nil {
		log.Printf("[WARN] 读取首选API前缀失败，重新选择: %v", err)
	}
	if ok && slices.Contains(candidates, stored) {
		return model.ResolvedEndpoint{Value: stored, SourceCandidates: candidates, Sticky: true}, nil
	}

	prefix, err := selector.PickUniform(string(model.PoolAPI), candidates, r.src)
	if err != nil {
		return model.ResolvedEndpoint{}, err
	}
	r.persist(ctx, prefix)
	log.Printf("[INFO] API前缀已选定: %s（候选 %d 个）", prefix, len(candidates))
	return model.ResolvedEndpoint{Value: prefix, SourceCandidates: candidates}, nil
}

func (r *PrefixResolver) persist(ctx context.Context, prefix string) {
	if err := r.store.SavePreferredPrefix(ctx, prefix); err != nil {
		log.Printf("[WARN] 保存首选API前缀失败: %v", err)
	}
}
