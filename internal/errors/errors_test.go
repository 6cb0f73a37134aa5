package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_ErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"无底层错误", ProbeSkipped("https://a.test"), "[PROBE_SKIPPED] https://a.test skipped"},
		{"带状态码", ProbeFailed("a.test", "https://a.test/x", 502, stderrors.New("Bad Gateway")),
			"[PROBE_FAILED] alive check failed for a.test, status 502: Bad Gateway"},
		{"无状态码", ProbeFailed("a.test", "https://a.test/x", 0, context.DeadlineExceeded),
			"[PROBE_FAILED] alive check failed for a.test: context deadline exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_UnwrapChain(t *testing.T) {
	err := ProbeFailed("a.test", "https://a.test/x", 0, context.DeadlineExceeded)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatal("应能沿错误链匹配底层错误")
	}

	// 经 fmt.Errorf 包装后仍能识别错误码
	wrapped := fmt.Errorf("check api: %w", NoEndpointAvailable("api", 3))
	if !HasErrorCode(wrapped, ErrCodeNoEndpointAvailable) {
		t.Fatalf("GetErrorCode = %q", GetErrorCode(wrapped))
	}
	if appErr, ok := AsAppError(wrapped); !ok || appErr.Context["checked"] != 3 {
		t.Fatalf("AsAppError = %+v, %v", appErr, ok)
	}
}

func TestGetErrorCode_NonAppError(t *testing.T) {
	if code := GetErrorCode(stderrors.New("plain")); code != "" {
		t.Errorf("code = %q, want empty", code)
	}
	if code := GetErrorCode(nil); code != "" {
		t.Errorf("nil code = %q, want empty", code)
	}
}

func TestFactories_CarryCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
	}{
		{EmptyPool("image_proxy"), ErrCodeEmptyPool},
		{PoolExhausted("image_proxy", 2), ErrCodePoolExhausted},
		{NotResolved("api"), ErrCodeNotResolved},
		{Offline(), ErrCodeOffline},
		{StateReadError("k", stderrors.New("io")), ErrCodeStateRead},
		{StateWriteError("k", stderrors.New("io")), ErrCodeStateWrite},
		{InvalidConfigError("api_prefix", "empty"), ErrCodeInvalidConfig},
		{MissingConfigError("store"), ErrCodeMissingConfig},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if !strings.HasPrefix(tt.err.Error(), "["+string(tt.code)+"]") {
				t.Errorf("Error() = %q", tt.err.Error())
			}
		})
	}
}
