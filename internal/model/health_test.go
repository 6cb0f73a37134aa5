package model

import (
	"testing"
	"time"
)

func TestHealthRecord_FailedWithin(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ttl := 24 * time.Hour

	tests := []struct {
		name string
		rec  HealthRecord
		want bool
	}{
		{"近期失败", NewHealthRecord(false, now.Add(-time.Hour)), true},
		{"近期成功", NewHealthRecord(true, now.Add(-time.Hour)), false},
		{"失败已过期", NewHealthRecord(false, now.Add(-25*time.Hour)), false},
		{"恰好到期", NewHealthRecord(false, now.Add(-ttl)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.FailedWithin(now, ttl); got != tt.want {
				t.Errorf("FailedWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthRecord_TimeIsEpochMillis(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 123_000_000, time.UTC)
	rec := NewHealthRecord(true, now)
	if rec.Time != now.UnixMilli() {
		t.Fatalf("Time = %d, want %d", rec.Time, now.UnixMilli())
	}
	if !rec.At().Equal(now) {
		t.Fatalf("At() = %v, want %v", rec.At(), now)
	}
}

func TestDisabledRecord_ActiveAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ttl := 24 * time.Hour

	tests := []struct {
		name string
		rec  DisabledRecord
		want bool
	}{
		{"有效", NewDisabledRecord([]string{"a"}, now.Add(-time.Minute)), true},
		{"过期", NewDisabledRecord([]string{"a"}, now.Add(-48*time.Hour)), false},
		{"空集合", NewDisabledRecord(nil, now), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ActiveAt(now, ttl); got != tt.want {
				t.Errorf("ActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDisabledRecord_CopiesHosts(t *testing.T) {
	hosts := []string{"a", "b"}
	rec := NewDisabledRecord(hosts, time.Now())
	hosts[0] = "x"
	if rec.Hosts[0] != "a" {
		t.Fatal("记录不应与调用方共享底层数组")
	}
}
