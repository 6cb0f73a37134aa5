package util

import "github.com/bytedance/sonic"

// MarshalString 使用sonic序列化为JSON字符串
func MarshalString(v any) (string, error) {
	return sonic.MarshalString(v)
}

// UnmarshalString 使用sonic从JSON字符串反序列化
func UnmarshalString(data string, v any) error {
	return sonic.UnmarshalString(data, v)
}
