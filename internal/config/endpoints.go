package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"lineLoad/internal/model"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// LoadEndpointConfig 读取端点配置文件（.yaml/.yml/.json）
// 校验通过后将未归一化的代理权重缩放到和为1.0
func LoadEndpointConfig(path string) (model.EndpointConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 路径来自运维配置
	if err != nil {
		return model.EndpointConfig{}, fmt.Errorf("读取端点配置失败: %w", err)
	}
	return ParseEndpointConfig(data, filepath.Ext(path))
}

// ParseEndpointConfig 按扩展名解析端点配置
func ParseEndpointConfig(data []byte, ext string) (model.EndpointConfig, error) {
	var cfg model.EndpointConfig

	switch strings.ToLower(ext) {
	case ".json":
		if err := sonic.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("解析端点配置失败: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("解析端点配置失败: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("端点配置无效: %w", err)
	}
	for _, kind := range cfg.NormalizeWeights() {
		log.Printf("[WARN] %s 权重和不为1.0，已按比例缩放", kind)
	}
	return cfg, nil
}
