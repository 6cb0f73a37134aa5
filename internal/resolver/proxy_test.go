package resolver_test

import (
	"math"
	"slices"
	"testing"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
	"lineLoad/internal/resolver"
	"lineLoad/internal/selector"
)

func weighted(pairs ...any) model.HostSpec {
	var spec model.HostSpec
	for i := 0; i+1 < len(pairs); i += 2 {
		spec.Weights = append(spec.Weights, model.Endpoint{ID: pairs[i].(string), Weight: pairs[i+1].(float64)})
	}
	return spec
}

func TestProxyHostResolver_FixedHost(t *testing.T) {
	r := resolver.NewProxyHostResolver("")
	pool, err := r.Define(model.PoolImageProxy, model.HostSpec{Fixed: "img.example.com"}, []string{"img.example.com"})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	host, fixed := pool.Fixed()
	if !fixed || host != "img.example.com" {
		t.Fatalf("Fixed()=(%s,%v)", host, fixed)
	}
	if pool.Pick(selector.RandomSource()) != "img.example.com" {
		t.Fatal("固定主机 Pick 结果错误")
	}
}

func TestProxyHostResolver_DisableAndRescale(t *testing.T) {
	r := resolver.NewProxyHostResolver(selector.DefaultSeed)
	spec := weighted("a", 0.5, "b", 0.3, "c", 0.2)

	pool, err := r.Define(model.PoolImageProxy, spec, []string{"a"})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if !pool.Filtered() {
		t.Fatal("应标记为已过滤")
	}

	want := map[string]float64{"b": 0.6, "c": 0.4}
	for _, ep := range pool.Weights() {
		if math.Abs(ep.Weight-want[ep.ID]) > 1e-9 {
			t.Errorf("%s 权重=%v, want %v", ep.ID, ep.Weight, want[ep.ID])
		}
	}

	seq := pool.Sequence()
	if slices.Contains(seq, "a") {
		t.Fatal("禁用主机出现在选择序列中")
	}
	if len(seq) != 100 {
		t.Fatalf("序列长度=%d, want 100", len(seq))
	}

	// 原配置不被修改
	if spec.Weights[0].Weight != 0.5 || len(spec.Weights) != 3 {
		t.Fatalf("Define 修改了输入配置: %+v", spec.Weights)
	}
}

func TestProxyHostResolver_DisabledHostNotInPool(t *testing.T) {
	r := resolver.NewProxyHostResolver("")
	pool, err := r.Define(model.PoolDownloadProxy, weighted("a", 0.5, "b", 0.5), []string{"other"})
	if err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if pool.Filtered() {
		t.Fatal("没有主机被移除时不应标记为已过滤")
	}
	if !slices.Equal(pool.Hosts(), []string{"a", "b"}) {
		t.Fatalf("Hosts=%v", pool.Hosts())
	}
}

func TestProxyHostResolver_AllDisabledExhausted(t *testing.T) {
	r := resolver.NewProxyHostResolver("")
	_, err := r.Define(model.PoolImageProxy, weighted("a", 0.6, "b", 0.4), []string{"a", "b"})
	if !errors.HasErrorCode(err, errors.ErrCodePoolExhausted) {
		t.Fatalf("err=%v, want POOL_EXHAUSTED", err)
	}
}

func TestProxyHostResolver_SameSeedSameSequenceAcrossDefines(t *testing.T) {
	r := resolver.NewProxyHostResolver("pixiviz")
	spec := weighted("a", 0.4, "b", 0.35, "c", 0.25)

	first, err := r.Define(model.PoolImageProxy, spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Define(model.PoolImageProxy, spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first.Sequence(), second.Sequence()) {
		t.Fatal("相同种子的两次定义应得到相同序列")
	}

	other, err := resolver.NewProxyHostResolver("elsewhere").Define(model.PoolImageProxy, spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Equal(first.Sequence(), other.Sequence()) {
		t.Fatal("不同种子得到相同序列")
	}
}

func TestProxyPool_PickFollowsWeights(t *testing.T) {
	r := resolver.NewProxyHostResolver("")
	pool, err := r.Define(model.PoolImageProxy, weighted("a", 0.7, "b", 0.3), nil)
	if err != nil {
		t.Fatal(err)
	}

	src := selector.NewSeededSource("draws")
	counts := make(map[string]int)
	const draws = 100000
	for range draws {
		counts[pool.Pick(src)]++
	}
	if share := float64(counts["a"]) / draws; math.Abs(share-0.7) > 0.01 {
		t.Fatalf("a 占比=%.3f, want 0.70±0.01", share)
	}
}
