package model

import (
	"math"
	"testing"
)

func TestEndpoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		wantErr bool
		wantID  string
	}{
		{"正常", Endpoint{ID: "img.test", Weight: 0.5}, false, "img.test"},
		{"trim空白", Endpoint{ID: "  img.test \t", Weight: 1}, false, "img.test"},
		{"空ID", Endpoint{ID: "   ", Weight: 1}, true, ""},
		{"非法字符", Endpoint{ID: "img\n.test", Weight: 1}, true, ""},
		{"零权重", Endpoint{ID: "img.test", Weight: 0}, true, ""},
		{"负权重", Endpoint{ID: "img.test", Weight: -0.1}, true, ""},
		{"NaN权重", Endpoint{ID: "img.test", Weight: math.NaN()}, true, ""},
		{"Inf权重", Endpoint{ID: "img.test", Weight: math.Inf(1)}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.ep.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", tt.ep.ID, tt.wantID)
			}
		})
	}
}

func TestNewPool_RejectsDuplicates(t *testing.T) {
	_, err := NewPool(PoolImageProxy, []Endpoint{
		{ID: "a.test", Weight: 0.5},
		{ID: " a.test", Weight: 0.5},
	})
	if err == nil {
		t.Fatal("trim后重复的ID应返回错误")
	}

	pool, err := NewPool(PoolImageProxy, []Endpoint{{ID: "b.test", Weight: 1}, {ID: "a.test", Weight: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if got := EndpointIDs(pool.Endpoints); got[0] != "b.test" || got[1] != "a.test" {
		t.Fatalf("应保留配置顺序, got %v", got)
	}
}

func TestIsNormalized(t *testing.T) {
	tests := []struct {
		name string
		eps  []Endpoint
		want bool
	}{
		{"和为1", []Endpoint{{ID: "a", Weight: 0.5}, {ID: "b", Weight: 0.3}, {ID: "c", Weight: 0.2}}, true},
		{"浮点误差内", []Endpoint{{ID: "a", Weight: 0.1}, {ID: "b", Weight: 0.2}, {ID: "c", Weight: 0.7}}, true},
		{"和为4", []Endpoint{{ID: "a", Weight: 3}, {ID: "b", Weight: 1}}, false},
		{"空", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNormalized(tt.eps); got != tt.want {
				t.Errorf("IsNormalized() = %v, want %v (total=%v)", got, tt.want, TotalWeight(tt.eps))
			}
		})
	}
}

func TestResolvedEndpoint_IsZero(t *testing.T) {
	if !(ResolvedEndpoint{}).IsZero() {
		t.Error("零值应视为未解析")
	}
	if (ResolvedEndpoint{Value: "https://api.test"}).IsZero() {
		t.Error("已有值不应视为未解析")
	}
}
