// Package failover 端点健康检查与故障转移
//
// API前缀检查是一个小状态机：
//
//	idle → checking_current → idle                    当前前缀存活
//	idle → checking_current → checking_all → idle     部分候选失败，重新解析
//	idle → checking_all → disabled                    全部候选失败，通知并终止本轮
//
// 仅当上次记录为失败且未超过有效期时才直接进入 checking_all。
// 代理检查每轮探测图片与下载代理主机的并集。
// 同一池同一时刻最多只有一轮检查在进行。
package failover

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"lineLoad/internal/errors"
	"lineLoad/internal/model"
	"lineLoad/internal/probe"
	"lineLoad/internal/resolver"
	"lineLoad/internal/selector"
	"lineLoad/internal/state"

	"golang.org/x/sync/singleflight"
)

// Options 控制器依赖
type Options struct {
	Store        *state.Store
	Prober       *probe.Prober
	Connectivity Connectivity // nil 表示始终在线
	Notifier     Notifier     // nil 表示丢弃通知

	Seed          string          // 洗牌种子，空则使用默认种子
	Draw          selector.Source // 抽取随机源，nil 使用非固定种子源
	StateTTL      time.Duration   // 失败记录与禁用集合有效期
	CheckInterval time.Duration   // 周期检查间隔，0 表示只在 Start 时检查一次

	Now func() time.Time
}

// Controller 故障转移控制器
type Controller struct {
	store        *state.Store
	prober       *probe.Prober
	connectivity Connectivity
	notifier     Notifier
	draw         selector.Source
	ttl          time.Duration
	interval     time.Duration
	now          func() time.Time

	prefixes *resolver.PrefixResolver
	proxies  *resolver.ProxyHostResolver

	mu            sync.RWMutex
	cfg           model.EndpointConfig
	api           model.ResolvedEndpoint
	status        Status
	pools         map[model.PoolKind]*resolver.ProxyPool
	proxyDisabled []string
	onTransition  func(from, to Phase)

	flight singleflight.Group

	// 后台循环
	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New 创建控制器（不访问网络与存储，需随后调用 Init）
func New(cfg model.EndpointConfig, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfigError("endpoints", err.Error())
	}
	if opts.Store == nil {
		return nil, errors.MissingConfigError("store")
	}
	if opts.Prober == nil {
		return nil, errors.MissingConfigError("prober")
	}

	c := &Controller{
		store:        opts.Store,
		prober:       opts.Prober,
		connectivity: opts.Connectivity,
		notifier:     opts.Notifier,
		draw:         opts.Draw,
		ttl:          opts.StateTTL,
		interval:     opts.CheckInterval,
		now:          opts.Now,
		cfg:          cfg,
		pools:        make(map[model.PoolKind]*resolver.ProxyPool),
		stopCh:       make(chan struct{}),
	}
	if c.connectivity == nil {
		c.connectivity = AlwaysOnline
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(Event) {})
	}
	if c.draw == nil {
		c.draw = selector.RandomSource()
	}
	if c.ttl <= 0 {
		c.ttl = 24 * time.Hour
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.prefixes = resolver.NewPrefixResolver(opts.Store, c.draw)
	c.proxies = resolver.NewProxyHostResolver(opts.Seed)
	c.status = Status{Phase: PhaseIdle, Since: c.now()}
	return c, nil
}

// OnTransition 注册阶段变化回调（在持锁外调用）
func (c *Controller) OnTransition(fn func(from, to Phase)) {
	c.mu.Lock()
	c.onTransition = fn
	c.mu.Unlock()
}

// Init 按持久化的禁用集合解析API前缀并定义代理池
func (c *Controller) Init(ctx context.Context) error {
	now := c.now()
	cfg := c.Config()

	apiDisabled, err := c.store.ActiveDisabled(ctx, model.ScopeAPI, now, c.ttl)
	if err != nil {
		log.Printf("[WARN] 读取API禁用集合失败: %v", err)
	}
	api, err := c.prefixes.Resolve(ctx, cfg.APIPrefix, apiDisabled)
	if errors.HasErrorCode(err, errors.ErrCodePoolExhausted) {
		log.Printf("[WARN] 持久化的禁用集合覆盖了全部API前缀，忽略禁用集合")
		apiDisabled = nil
		api, err = c.prefixes.Resolve(ctx, cfg.APIPrefix, nil)
	}
	if err != nil {
		return err
	}

	proxyDisabled, err := c.store.ActiveDisabled(ctx, model.ScopeProxy, now, c.ttl)
	if err != nil {
		log.Printf("[WARN] 读取代理禁用集合失败: %v", err)
	}
	pools := make(map[model.PoolKind]*resolver.ProxyPool, len(model.ProxyKinds))
	exhausted := false
	for _, kind := range model.ProxyKinds {
		spec := cfg.HostSpec(kind)
		if spec.IsEmpty() {
			continue
		}
		pool, err := c.proxies.Define(kind, spec, proxyDisabled)
		if errors.HasErrorCode(err, errors.ErrCodePoolExhausted) {
			// 启动时没有旧池可保留，退回完整配置
			exhausted = true
			pool, err = c.proxies.Define(kind, spec, nil)
		}
		if err != nil {
			// 不影响API前缀与其他代理池，该类型保持未定义
			log.Printf("[WARN] %s 代理池不可用，保持未定义: %v", kind, err)
			continue
		}
		pools[kind] = pool
	}
	proxyDisabled = removedHosts(cfg, pools, proxyDisabled)

	c.mu.Lock()
	c.api = api
	c.status.Disabled = apiDisabled
	c.pools = pools
	c.proxyDisabled = proxyDisabled
	c.mu.Unlock()

	disabledEndpoints.WithLabelValues(string(model.ScopeAPI)).Set(float64(len(apiDisabled)))
	disabledEndpoints.WithLabelValues(string(model.ScopeProxy)).Set(float64(len(proxyDisabled)))
	if exhausted {
		c.notify(EventProxyNotAvailable)
	}
	log.Printf("[INFO] 端点初始化完成: api=%s, api禁用=%d, 代理禁用=%d", api.Value, len(apiDisabled), len(proxyDisabled))
	return nil
}

// Reload 替换端点配置并重新初始化
func (c *Controller) Reload(ctx context.Context, cfg model.EndpointConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.InvalidConfigError("endpoints", err.Error())
	}
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	return c.Init(ctx)
}

// ============================================================================
// API 检查
// ============================================================================

// CheckAPI 执行一轮API前缀检查
// 并发调用共享同一轮结果
func (c *Controller) CheckAPI(ctx context.Context) (CheckResult, error) {
	v, err, _ := c.flight.Do(string(model.PoolAPI), func() (any, error) {
		// 共享的一轮检查不随某个调用方取消；每个探测自带超时
		return c.checkAPI(context.WithoutCancel(ctx))
	})
	res, _ := v.(CheckResult)
	return res, err
}

func (c *Controller) checkAPI(ctx context.Context) (CheckResult, error) {
	if !c.connectivity.Online(ctx) {
		if err := ctx.Err(); err != nil {
			return CheckResult{}, err
		}
		c.notify(EventUserNotOnline)
		return CheckResult{Mode: ModeOffline}, errors.Offline()
	}

	prev := c.APIStatus().Phase
	var (
		res CheckResult
		err error
	)
	last, ok, lerr := c.store.LastHealth(ctx)
	if lerr != nil {
		log.Printf("[WARN] 读取上次检查记录失败: %v", lerr)
	}
	if ok && last.FailedWithin(c.now(), c.ttl) {
		res, err = c.checkAllAPI(ctx, nil)
	} else {
		res, err = c.checkCurrentAPI(ctx)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
		// 本轮被取消：探测结果不可信，恢复到开始前的阶段
		c.transition(prev, nil, false)
	}
	return res, err
}

func (c *Controller) checkCurrentAPI(ctx context.Context) (CheckResult, error) {
	current, err := c.API()
	if err != nil {
		// 尚未解析：先解析再探测
		cfg := c.Config()
		if current, err = c.prefixes.Resolve(ctx, cfg.APIPrefix, nil); err != nil {
			return CheckResult{Mode: ModeCurrent}, err
		}
		c.mu.Lock()
		c.api = current
		c.mu.Unlock()
	}

	c.transition(PhaseCheckingCurrent, nil, false)
	checkCycles.WithLabelValues(string(model.PoolAPI), string(ModeCurrent)).Inc()

	target := probe.APITargets([]string{current.Value}, c.now())[0]
	_, probeErr := c.prober.Probe(ctx, target)
	if err := ctx.Err(); err != nil {
		return CheckResult{Mode: ModeCurrent}, err
	}
	c.saveHealth(ctx, probeErr == nil)

	if probeErr == nil {
		c.transition(PhaseIdle, nil, false)
		return CheckResult{Mode: ModeCurrent, Checked: []string{current.Value}, Selected: current.Value}, nil
	}

	log.Printf("[WARN] 当前API前缀不可用，检查全部候选: %v", probeErr)
	return c.checkAllAPI(ctx, []string{current.Value})
}

func (c *Controller) checkAllAPI(ctx context.Context, skip []string) (CheckResult, error) {
	c.transition(PhaseCheckingAll, nil, false)
	checkCycles.WithLabelValues(string(model.PoolAPI), string(ModeAll)).Inc()

	cfg := c.Config()
	candidates := cfg.APIPrefix.Candidates
	results := c.prober.ProbeAll(ctx, probe.APITargets(candidates, c.now()), skip)
	if err := ctx.Err(); err != nil {
		return CheckResult{Mode: ModeAll}, err
	}
	disabled := probe.Failed(results)
	res := CheckResult{Mode: ModeAll, Checked: slices.Clone(candidates), Disabled: disabled}

	switch {
	case len(disabled) == len(candidates):
		log.Printf("[ERROR] 全部 %d 个API前缀均不可用", len(candidates))
		c.notify(EventAPINotAvailable)
		c.transition(PhaseDisabled, disabled, true)
		disabledEndpoints.WithLabelValues(string(model.ScopeAPI)).Set(float64(len(disabled)))
		return res, errors.NoEndpointAvailable(string(model.PoolAPI), len(candidates))

	case len(disabled) > 0:
		log.Printf("[WARN] 以下API前缀已禁用: %v", disabled)
		if err := c.store.SaveDisabled(ctx, model.ScopeAPI, model.NewDisabledRecord(disabled, c.now())); err != nil {
			log.Printf("[WARN] 保存API禁用集合失败: %v", err)
		}
		api, err := c.prefixes.Resolve(ctx, cfg.APIPrefix, disabled)
		if err != nil {
			c.transition(PhaseIdle, disabled, true)
			return res, err
		}
		c.mu.Lock()
		c.api = api
		c.mu.Unlock()
		res.Selected = api.Value
		c.transition(PhaseIdle, disabled, true)
		disabledEndpoints.WithLabelValues(string(model.ScopeAPI)).Set(float64(len(disabled)))
		return res, nil

	default:
		if err := c.store.ClearDisabled(ctx, model.ScopeAPI); err != nil {
			log.Printf("[WARN] 清除API禁用集合失败: %v", err)
		}
		current, _ := c.API()
		if len(current.SourceCandidates) < len(candidates) {
			// 之前被过滤过：恢复完整候选，首选前缀仍然沿用
			if api, err := c.prefixes.Resolve(ctx, cfg.APIPrefix, nil); err == nil {
				c.mu.Lock()
				c.api = api
				c.mu.Unlock()
				current = api
			}
		}
		res.Selected = current.Value
		c.transition(PhaseIdle, nil, true)
		disabledEndpoints.WithLabelValues(string(model.ScopeAPI)).Set(0)
		return res, nil
	}
}

func (c *Controller) saveHealth(ctx context.Context, pass bool) {
	if err := c.store.SaveHealth(ctx, model.NewHealthRecord(pass, c.now())); err != nil {
		log.Printf("[WARN] 保存检查记录失败: %v", err)
	}
}

// ============================================================================
// 代理检查
// ============================================================================

// CheckProxies 执行一轮代理主机检查
func (c *Controller) CheckProxies(ctx context.Context) (CheckResult, error) {
	v, err, _ := c.flight.Do(string(model.ScopeProxy), func() (any, error) {
		return c.checkProxies(context.WithoutCancel(ctx))
	})
	res, _ := v.(CheckResult)
	return res, err
}

func (c *Controller) checkProxies(ctx context.Context) (CheckResult, error) {
	if !c.connectivity.Online(ctx) {
		if err := ctx.Err(); err != nil {
			return CheckResult{}, err
		}
		c.notify(EventUserNotOnline)
		return CheckResult{Mode: ModeOffline}, errors.Offline()
	}

	cfg := c.Config()
	hosts := cfg.ProxyHosts()
	res := CheckResult{Mode: ModeAll, Checked: hosts}
	if len(hosts) == 0 {
		return res, nil
	}
	checkCycles.WithLabelValues(string(model.ScopeProxy), string(ModeAll)).Inc()

	results := c.prober.ProbeAll(ctx, probe.ProxyTargets(hosts), nil)
	if err := ctx.Err(); err != nil {
		return CheckResult{Mode: ModeAll}, err
	}
	disabled := probe.Failed(results)
	res.Disabled = disabled

	if len(disabled) == 0 {
		if err := c.store.ClearDisabled(ctx, model.ScopeProxy); err != nil {
			log.Printf("[WARN] 清除代理禁用集合失败: %v", err)
		}
		c.redefinePools(cfg, nil)
		disabledEndpoints.WithLabelValues(string(model.ScopeProxy)).Set(0)
		return res, nil
	}

	log.Printf("[WARN] 以下代理主机已禁用: %v", disabled)
	if err := c.store.SaveDisabled(ctx, model.ScopeProxy, model.NewDisabledRecord(disabled, c.now())); err != nil {
		log.Printf("[WARN] 保存代理禁用集合失败: %v", err)
	}

	exhausted := c.redefinePools(cfg, disabled)
	disabledEndpoints.WithLabelValues(string(model.ScopeProxy)).Set(float64(len(c.ProxyDisabled())))
	if len(exhausted) > 0 {
		for _, kind := range exhausted {
			res.Exhausted = append(res.Exhausted, string(kind))
		}
		log.Printf("[ERROR] 代理池全部不可用，保留原池: %v", res.Exhausted)
		c.notify(EventProxyNotAvailable)
		return res, errors.PoolExhausted(res.Exhausted[0], len(disabled))
	}
	return res, nil
}

// redefinePools 按禁用集合重新定义各代理池
// 被全部禁用的池保留原样并返回其类型
func (c *Controller) redefinePools(cfg model.EndpointConfig, disabled []string) []model.PoolKind {
	var exhausted []model.PoolKind

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, kind := range model.ProxyKinds {
		spec := cfg.HostSpec(kind)
		if !spec.IsPool() {
			continue
		}
		prev := c.pools[kind]
		if len(disabled) == 0 && prev != nil && !prev.Filtered() {
			continue
		}
		pool, err := c.proxies.Define(kind, spec, disabled)
		if err != nil {
			if errors.HasErrorCode(err, errors.ErrCodePoolExhausted) {
				exhausted = append(exhausted, kind)
			} else {
				log.Printf("[ERROR] 重新定义 %s 代理池失败: %v", kind, err)
			}
			continue
		}
		c.pools[kind] = pool
	}
	c.proxyDisabled = removedHosts(cfg, c.pools, disabled)
	return exhausted
}

// removedHosts 实际已从生效代理池中移除的禁用主机
// 因全部禁用而保留原池的类型仍在分发这些主机，不计入
func removedHosts(cfg model.EndpointConfig, pools map[model.PoolKind]*resolver.ProxyPool, disabled []string) []string {
	var removed []string
	for _, id := range disabled {
		for _, kind := range model.ProxyKinds {
			pool := pools[kind]
			if pool == nil || !pool.Filtered() {
				continue
			}
			configured := model.EndpointIDs(cfg.HostSpec(kind).Weights)
			if slices.Contains(configured, id) && !slices.Contains(pool.Hosts(), id) {
				removed = append(removed, id)
				break
			}
		}
	}
	return removed
}

// ============================================================================
// 后台循环
// ============================================================================

// Start 启动后台检查：立即执行一轮，之后按间隔重复
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel

		c.wg.Add(1)
		go c.loop(ctx)
	})
}

// Stop 停止后台检查并等待当前一轮结束
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if c.cancel != nil {
			c.cancel()
		}
	})
	c.wg.Wait()
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	c.runChecks(ctx)
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.runChecks(ctx)
		}
	}
}

func (c *Controller) runChecks(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := c.checkAPIWithin(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[WARN] API检查: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := c.checkProxiesWithin(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[WARN] 代理检查: %v", err)
		}
	}()
	wg.Wait()
}

// checkAPIWithin 后台循环使用：Stop 时取消在途探测
func (c *Controller) checkAPIWithin(ctx context.Context) (CheckResult, error) {
	v, err, _ := c.flight.Do(string(model.PoolAPI), func() (any, error) {
		return c.checkAPI(ctx)
	})
	res, _ := v.(CheckResult)
	return res, err
}

func (c *Controller) checkProxiesWithin(ctx context.Context) (CheckResult, error) {
	v, err, _ := c.flight.Do(string(model.ScopeProxy), func() (any, error) {
		return c.checkProxies(ctx)
	})
	res, _ := v.(CheckResult)
	return res, err
}

// ============================================================================
// 查询
// ============================================================================

// Config 当前端点配置
func (c *Controller) Config() model.EndpointConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// API 当前API前缀
func (c *Controller) API() (model.ResolvedEndpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.api.IsZero() {
		return model.ResolvedEndpoint{}, errors.NotResolved(string(model.PoolAPI))
	}
	return c.api, nil
}

// APIStatus API状态机快照
func (c *Controller) APIStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.status
	s.Disabled = slices.Clone(s.Disabled)
	return s
}

// ProxyPool 指定类型的代理池
func (c *Controller) ProxyPool(kind model.PoolKind) (*resolver.ProxyPool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pool, ok := c.pools[kind]
	return pool, ok
}

// PickProxy 按权重抽取一个代理主机
func (c *Controller) PickProxy(kind model.PoolKind) (string, error) {
	pool, ok := c.ProxyPool(kind)
	if !ok {
		return "", errors.NotResolved(string(kind))
	}
	return pool.Pick(c.draw), nil
}

// ProxyDisabled 当前生效的代理禁用集合
func (c *Controller) ProxyDisabled() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.proxyDisabled)
}

// ============================================================================
// 内部
// ============================================================================

// transition 切换阶段；setDisabled 为 true 时同时替换禁用集合
func (c *Controller) transition(to Phase, disabled []string, setDisabled bool) {
	c.mu.Lock()
	from := c.status.Phase
	c.status.Phase = to
	c.status.Since = c.now()
	if setDisabled {
		c.status.Disabled = slices.Clone(disabled)
	}
	hook := c.onTransition
	c.mu.Unlock()

	if hook != nil && from != to {
		hook(from, to)
	}
}

func (c *Controller) notify(e Event) {
	notifications.WithLabelValues(string(e)).Inc()
	c.notifier.Notify(e)
}
