package main

import (
	"cmp"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lineLoad/internal/app"
	"lineLoad/internal/config"
	"lineLoad/internal/failover"
	"lineLoad/internal/model"
	"lineLoad/internal/probe"
	"lineLoad/internal/selector"
	"lineLoad/internal/state"
	"lineLoad/internal/storage"
	"lineLoad/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 优先读取.env文件
	if err := godotenv.Load(); err != nil {
		log.Printf("[INFO] 未找到 .env 文件: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	version.PrintBanner(
		version.Setting{Name: "Listen:", Value: cfg.ListenAddr()},
		version.Setting{Name: "Endpoints:", Value: cfg.EndpointsFile},
		version.Setting{Name: "Store:", Value: cfg.StoreKind()},
		version.Setting{Name: "Namespace:", Value: cfg.StateNamespace},
		version.Setting{Name: "Seed:", Value: cmp.Or(cfg.ShuffleSeed, selector.DefaultSeed)},
	)

	// 设置Gin运行模式
	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	endpoints, err := config.LoadEndpointConfig(cfg.EndpointsFile)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	kv, err := storage.NewStore(cfg)
	if err != nil {
		log.Fatalf("[ERROR] 状态存储初始化失败: %v", err)
	}
	defer func() { _ = kv.Close() }()

	bus := failover.NewBus(config.DefaultEventHistory)
	var connectivity failover.Connectivity = failover.AlwaysOnline
	if cfg.ConnectivityAddr != "" {
		connectivity = failover.NewDialOracle(cfg.ConnectivityAddr, config.ConnectivityDialTimeout)
	}

	ctrl, err := failover.New(endpoints, failover.Options{
		Store:         state.New(kv, cfg.StateNamespace),
		Prober:        probe.NewProber(probe.NewHTTPTransport(cfg.SkipTLSVerify), cfg.ProbeTimeoutDuration()),
		Connectivity:  connectivity,
		Notifier:      failover.Notifiers{bus, failover.NotifierFunc(logEvent)},
		Seed:          cfg.ShuffleSeed,
		StateTTL:      cfg.StateTTL(),
		CheckInterval: cfg.CheckIntervalDuration(),
	})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), config.StartupMigrationTimeout)
	if err := ctrl.Init(initCtx); err != nil {
		initCancel()
		log.Fatalf("[ERROR] 端点初始化失败: %v", err)
	}
	initCancel()
	ctrl.Start()

	auth, err := app.NewAdminAuth(cfg.Password)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	srv := app.NewServer(app.ServerOptions{
		Controller: ctrl,
		Bus:        bus,
		Auth:       auth,
		Store:      kv,
		TriggerRPS: cfg.TriggerRPS,
	})

	if cfg.WatchConfig {
		watcher, err := config.NewEndpointWatcher(cfg.EndpointsFile, config.ConfigReloadDebounce, func(next model.EndpointConfig) {
			ctx, cancel := context.WithTimeout(context.Background(), config.StateOpTimeout)
			defer cancel()
			if err := ctrl.Reload(ctx, next); err != nil {
				log.Printf("[WARN] 应用新端点配置失败: %v", err)
			}
		})
		if err != nil {
			log.Printf("[WARN] 端点配置热加载不可用: %v", err)
		} else {
			srv.Go(watcher.Run)
		}
	}

	// 创建Gin引擎
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	srv.SetupRoutes(r)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           r,
		ReadHeaderTimeout: config.HTTPDialTimeout,
	}

	go func() {
		log.Printf("[INFO] listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[ERROR] %v", err)
		}
	}()

	// 等待退出信号
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] HTTP服务关闭失败: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

func logEvent(e failover.Event) {
	log.Printf("[WARN] 通知: %s", e)
}
