package app

import (
	"context"
	"log"
	"sync"
	"time"

	"lineLoad/internal/config"
	"lineLoad/internal/failover"
	"lineLoad/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Server 端点状态HTTP服务
// 对外只读暴露当前选择结果，管理端可手动触发检查
type Server struct {
	ctrl    *failover.Controller
	bus     *failover.Bus
	auth    *AdminAuth
	store   storage.KVStore // 仅用于健康检查，可为nil
	trigger *rate.Limiter

	startedAt time.Time

	// 后台任务（配置监听等）
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// ServerOptions 服务依赖
type ServerOptions struct {
	Controller *failover.Controller
	Bus        *failover.Bus
	Auth       *AdminAuth
	Store      storage.KVStore
	TriggerRPS int
}

// NewServer 创建服务
func NewServer(opts ServerOptions) *Server {
	rps := opts.TriggerRPS
	if rps <= 0 {
		rps = config.DefaultTriggerRPS
	}
	bus := opts.Bus
	if bus == nil {
		bus = failover.NewBus(config.DefaultEventHistory)
	}
	return &Server{
		ctrl:       opts.Controller,
		bus:        bus,
		auth:       opts.Auth,
		store:      opts.Store,
		trigger:    rate.NewLimiter(rate.Limit(rps), config.DefaultTriggerBurst),
		startedAt:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
}

// SetupRoutes 注册路由
func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公开访问：当前选择结果
	public := r.Group("/public")
	{
		public.GET("/endpoints", s.handleEndpoints)
		public.GET("/proxy/:kind/pick", s.handlePickProxy)
		public.GET("/events", s.handleEvents)
	}

	// 管理接口：手动触发检查
	admin := r.Group("/admin")
	admin.Use(s.auth.RequireAdmin())
	{
		check := admin.Group("/check")
		check.Use(Throttle(s.trigger))
		check.POST("/api", s.handleCheckAPI)
		check.POST("/proxy", s.handleCheckProxy)
	}
}

// Go 启动受控后台任务，Shutdown 时取消并等待
func (s *Server) Go(fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		go func() {
			select {
			case <-s.shutdownCh:
				cancel()
			case <-ctx.Done():
			}
		}()
		fn(ctx)
	}()
}

// Shutdown 停止后台检查与后台任务
// ctx 控制最大等待时间，超时返回 ctx.Err()
func (s *Server) Shutdown(ctx context.Context) error {
	log.Print("[INFO] 正在关闭Server，等待后台任务完成...")

	s.shutdownOnce.Do(func() { close(s.shutdownCh) })

	done := make(chan struct{})
	go func() {
		if s.ctrl != nil {
			s.ctrl.Stop()
		}
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Print("[INFO] Server优雅关闭完成")
		return nil
	case <-ctx.Done():
		log.Print("[WARN]  Server关闭超时，部分后台任务可能未完成")
		return ctx.Err()
	}
}

// storePingTimeout 健康检查中存储探测的超时
const storePingTimeout = time.Second

func (s *Server) pingStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}
