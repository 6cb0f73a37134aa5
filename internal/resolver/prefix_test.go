package resolver_test

import (
	"context"
	"math"
	"slices"
	"testing"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
	"lineLoad/internal/resolver"
	"lineLoad/internal/selector"
	"lineLoad/internal/testutil"
)

func TestPrefixResolver_FixedPrefixOnlyPersists(t *testing.T) {
	st, _ := testutil.SetupStateStore(t, "pixiviz")
	r := resolver.NewPrefixResolver(st, nil)
	ctx := context.Background()

	got, err := r.Resolve(ctx, model.FixedPrefix("https://only.example.com"), []string{"https://only.example.com"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// 固定前缀不参与过滤
	if got.Value != "https://only.example.com" || got.Sticky {
		t.Fatalf("got=%+v", got)
	}
	stored, ok, _ := st.PreferredPrefix(ctx)
	if !ok || stored != "https://only.example.com" {
		t.Fatalf("未持久化固定前缀: %q", stored)
	}
}

func TestPrefixResolver_StickyIsIdempotent(t *testing.T) {
	st, _ := testutil.SetupStateStore(t, "pixiviz")
	r := resolver.NewPrefixResolver(st, selector.NewSeededSource("t"))
	ctx := context.Background()
	spec := model.PrefixList("p1", "p2", "p3")

	first, err := r.Resolve(ctx, spec, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first.Sticky {
		t.Fatal("首次解析不应标记为 sticky")
	}

	for range 20 {
		again, err := r.Resolve(ctx, spec, nil)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if again.Value != first.Value || !again.Sticky {
			t.Fatalf("重复解析结果变化: first=%s again=%+v", first.Value, again)
		}
	}
}

func TestPrefixResolver_StoredPrefixDisabledPicksAnother(t *testing.T) {
	st, _ := testutil.SetupStateStore(t, "pixiviz")
	ctx := context.Background()
	if err := st.SavePreferredPrefix(ctx, "p1"); err != nil {
		t.Fatal(err)
	}

	r := resolver.NewPrefixResolver(st, selector.NewSeededSource("t"))
	got, err := r.Resolve(ctx, model.PrefixList("p1", "p2", "p3"), []string{"p1"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Value == "p1" || got.Sticky {
		t.Fatalf("禁用的首选前缀不应被沿用: %+v", got)
	}
	if !slices.Equal(got.SourceCandidates, []string{"p2", "p3"}) {
		t.Fatalf("SourceCandidates=%v", got.SourceCandidates)
	}
	stored, _, _ := st.PreferredPrefix(ctx)
	if stored != got.Value {
		t.Fatalf("新选择未持久化: stored=%s got=%s", stored, got.Value)
	}
}

func TestPrefixResolver_StoredPrefixNotInConfig(t *testing.T) {
	st, _ := testutil.SetupStateStore(t, "pixiviz")
	ctx := context.Background()
	if err := st.SavePreferredPrefix(ctx, "removed-from-config"); err != nil {
		t.Fatal(err)
	}

	r := resolver.NewPrefixResolver(st, nil)
	got, err := r.Resolve(ctx, model.PrefixList("p1"), nil)
	if err != nil || got.Value != "p1" {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestPrefixResolver_AllDisabledExhausted(t *testing.T) {
	st, _ := testutil.SetupStateStore(t, "pixiviz")
	r := resolver.NewPrefixResolver(st, nil)

	_, err := r.Resolve(context.Background(), model.PrefixList("p1", "p2"), []string{"p1", "p2"})
	if !errors.HasErrorCode(err, errors.ErrCodePoolExhausted) {
		t.Fatalf("err=%v, want POOL_EXHAUSTED", err)
	}
}

func TestPrefixResolver_UniformWhenNoPreference(t *testing.T) {
	ctx := context.Background()
	st, kv := testutil.SetupStateStore(t, "pixiviz")
	r := resolver.NewPrefixResolver(st, selector.NewSeededSource("uniform"))
	counts := make(map[string]int)
	const rounds = 1500

	for range rounds {
		// 清除首选前缀，每轮都重新选择
		if err := kv.Remove(ctx, st.Keys().Prefix); err != nil {
			t.Fatal(err)
		}
		got, err := r.Resolve(ctx, model.PrefixList("p1", "p2", "p3"), nil)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		counts[got.Value]++
	}

	for _, p := range []string{"p1", "p2", "p3"} {
		share := float64(counts[p]) / rounds
		if math.Abs(share-1.0/3) > 0.05 {
			t.Errorf("%s 占比=%.3f, want ~0.333", p, share)
		}
	}
}
