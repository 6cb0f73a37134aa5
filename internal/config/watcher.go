package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"lineLoad/internal/model"

	"github.com/fsnotify/fsnotify"
)

// EndpointWatcher 监听端点配置文件变化
// 监听所在目录而非文件本身：编辑器通常以“写临时文件+重命名”的方式保存
type EndpointWatcher struct {
	path     string
	debounce time.Duration
	onChange func(model.EndpointConfig)
	watcher  *fsnotify.Watcher
}

// NewEndpointWatcher 创建监听器；onChange 仅在新配置校验通过后调用
func NewEndpointWatcher(path string, debounce time.Duration, onChange func(model.EndpointConfig)) (*EndpointWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听失败: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}
	if debounce <= 0 {
		debounce = ConfigReloadDebounce
	}
	return &EndpointWatcher{path: abs, debounce: debounce, onChange: onChange, watcher: w}, nil
}

// Run 处理事件直到 ctx 结束，结束时关闭底层监听
func (w *EndpointWatcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	// 停止状态的定时器，首个事件到来时才启动
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] 端点配置监听错误: %v", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *EndpointWatcher) reload() {
	cfg, err := LoadEndpointConfig(w.path)
	if err != nil {
		log.Printf("[WARN] 端点配置变更被忽略: %v", err)
		return
	}
	log.Printf("[INFO] 端点配置已重新加载: %s", w.path)
	w.onChange(cfg)
}
