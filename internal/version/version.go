// Package version 提供应用版本信息
// 版本号通过 go build -ldflags 注入
package version

import "strings"

// 构建信息变量，通过 ldflags 注入
// 构建命令示例:
//
//	go build -ldflags "-X lineLoad/internal/version.Version=$(git describe --tags --always) \
//	  -X lineLoad/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X 'lineLoad/internal/version.BuildTime=$(date +%Y-%m-%d\ %H:%M:%S\ %z)'"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Short 返回 "版本 (提交)"，用于健康检查与日志
func Short() string {
	v := strings.TrimPrefix(Version, "v")
	if Commit == "" || Commit == "unknown" {
		return v
	}
	return v + " (" + Commit + ")"
}
