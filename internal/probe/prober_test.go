package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	apperrors "lineLoad/internal/errors"
	"lineLoad/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe_StatusMustBeExactly200(t *testing.T) {
	tests := []struct {
		name   string
		status int
		alive  bool
	}{
		{"200存活", http.StatusOK, true},
		{"204失败", http.StatusNoContent, false},
		{"301失败", http.StatusMovedPermanently, false},
		{"404失败", http.StatusNotFound, false},
		{"503失败", http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("method=%s, want HEAD", r.Method)
				}
				if tt.status == http.StatusMovedPermanently {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			})

			p := NewProber(NewHTTPTransportWithClient(srv.Client()), time.Second)
			target := Target{Kind: model.PoolAPI, ID: "prefix-a", URL: srv.URL + "/rank"}

			id, err := p.Probe(context.Background(), target)
			if tt.alive {
				if err != nil {
					t.Fatalf("Probe failed: %v", err)
				}
				if id != "prefix-a" {
					t.Fatalf("id=%q, want prefix-a", id)
				}
				return
			}
			if !apperrors.HasErrorCode(err, apperrors.ErrCodeProbeFailed) {
				t.Fatalf("err=%v, want PROBE_FAILED", err)
			}
			if id != "" {
				t.Fatalf("失败时不应返回ID: %q", id)
			}
		})
	}
}

func TestProbe_NoRedirectFollow(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/ok", http.StatusFound)
	})

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	p := NewProber(NewHTTPTransportWithClient(client), time.Second)

	_, err := p.Probe(context.Background(), Target{ID: "h", URL: srv.URL + "/start"})
	if err == nil {
		t.Fatal("302 应视为失败")
	}
	if hits.Load() != 1 {
		t.Fatalf("请求次数=%d, want 1（不跟随重定向）", hits.Load())
	}
}

func TestProbe_TimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	p := NewProber(NewHTTPTransportWithClient(srv.Client()), 50*time.Millisecond)

	start := time.Now()
	_, err := p.Probe(context.Background(), Target{ID: "slow", URL: srv.URL})
	if !apperrors.HasErrorCode(err, apperrors.ErrCodeProbeFailed) {
		t.Fatalf("err=%v, want PROBE_FAILED", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("超时未生效，耗时 %v", elapsed)
	}
}

func TestProbe_TransportErrorIsFailure(t *testing.T) {
	boom := errors.New("dns failure")
	p := NewProber(TransportFunc(func(context.Context, string) (int, error) {
		return 0, boom
	}), time.Second)

	_, err := p.Probe(context.Background(), Target{ID: "x", URL: "https://x.invalid"})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, 应包装底层错误", err)
	}
}

func TestProbeAll_SettlesEveryTargetInOrder(t *testing.T) {
	statuses := map[string]int{
		"a": http.StatusOK,
		"b": http.StatusInternalServerError,
		"c": http.StatusOK,
		"d": http.StatusNotFound,
	}
	var calls atomic.Int32
	transport := TransportFunc(func(_ context.Context, url string) (int, error) {
		calls.Add(1)
		return statuses[url], nil
	})
	p := NewProber(transport, time.Second)

	targets := []Target{
		{ID: "a", URL: "a"},
		{ID: "b", URL: "b"},
		{ID: "c", URL: "c"},
		{ID: "d", URL: "d"},
	}
	results := p.ProbeAll(context.Background(), targets, nil)

	if len(results) != len(targets) {
		t.Fatalf("结果数=%d, want %d", len(results), len(targets))
	}
	for i, r := range results {
		if r.Target.ID != targets[i].ID {
			t.Fatalf("结果顺序错误: results[%d]=%s, want %s", i, r.Target.ID, targets[i].ID)
		}
	}
	if got := Alive(results); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("Alive=%v", got)
	}
	if got := Failed(results); !slices.Equal(got, []string{"b", "d"}) {
		t.Fatalf("Failed=%v", got)
	}
	if calls.Load() != 4 {
		t.Fatalf("探测次数=%d, want 4", calls.Load())
	}
}

func TestProbeAll_SkipSettlesWithoutTraffic(t *testing.T) {
	var calls atomic.Int32
	transport := TransportFunc(func(_ context.Context, url string) (int, error) {
		calls.Add(1)
		if url == "current" {
			t.Errorf("跳过的目标不应被探测")
		}
		return http.StatusOK, nil
	})
	p := NewProber(transport, time.Second)

	targets := []Target{{ID: "current", URL: "current"}, {ID: "other", URL: "other"}}
	results := p.ProbeAll(context.Background(), targets, []string{"current"})

	if !apperrors.HasErrorCode(results[0].Err, apperrors.ErrCodeProbeSkipped) {
		t.Fatalf("results[0].Err=%v, want PROBE_SKIPPED", results[0].Err)
	}
	if !results[1].OK() {
		t.Fatalf("results[1] 应存活: %v", results[1].Err)
	}
	if calls.Load() != 1 {
		t.Fatalf("探测次数=%d, want 1", calls.Load())
	}
}

func TestProbeAll_RunsConcurrently(t *testing.T) {
	const n = 5
	arrived := make(chan struct{}, n)
	release := make(chan struct{})
	transport := TransportFunc(func(ctx context.Context, _ string) (int, error) {
		arrived <- struct{}{}
		select {
		case <-release:
			return http.StatusOK, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	p := NewProber(transport, 5*time.Second)

	targets := make([]Target, n)
	for i := range targets {
		targets[i] = Target{ID: string(rune('a' + i)), URL: "u"}
	}

	done := make(chan []Result, 1)
	go func() { done <- p.ProbeAll(context.Background(), targets, nil) }()

	// 全部探测同时在途才会收齐 n 个信号
	for range n {
		select {
		case <-arrived:
		case <-time.After(2 * time.Second):
			t.Fatal("探测未并发执行")
		}
	}
	close(release)

	results := <-done
	if len(Alive(results)) != n {
		t.Fatalf("存活数=%d, want %d", len(Alive(results)), n)
	}
}

func TestURLBuilders(t *testing.T) {
	day := time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC)

	if got := APIProbeURL("https://api.example.com/v1/", day); got != "https://api.example.com/v1/rank?mode=day&date=2024-03-07" {
		t.Fatalf("APIProbeURL=%s", got)
	}
	if got := ProxyProbeURL("img.example.com"); got != "https://img.example.com/img-original/img/2007/09/20/19/49/36/10000_p0.jpg" {
		t.Fatalf("ProxyProbeURL=%s", got)
	}
	if got := ProxyProbeURL("http://127.0.0.1:8080/"); got != "http://127.0.0.1:8080/img-original/img/2007/09/20/19/49/36/10000_p0.jpg" {
		t.Fatalf("ProxyProbeURL with scheme=%s", got)
	}

	targets := APITargets([]string{"p1", "p2"}, day)
	if targets[1].ID != "p2" || targets[1].Kind != model.PoolAPI {
		t.Fatalf("APITargets=%+v", targets)
	}
	proxies := ProxyTargets([]string{"h1"})
	if proxies[0].URL != ProxyProbeURL("h1") {
		t.Fatalf("ProxyTargets=%+v", proxies)
	}
}
