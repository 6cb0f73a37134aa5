package failover

import "time"

// Phase API检查状态机阶段
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCheckingCurrent Phase = "checking_current" // 只探测当前前缀
	PhaseCheckingAll     Phase = "checking_all"     // 并发探测全部候选
	PhaseDisabled        Phase = "disabled"         // 全部候选不可用，本轮终止
)

// Status 状态快照
type Status struct {
	Phase    Phase     `json:"phase"`
	Disabled []string  `json:"disabled"` // 最近一次全量检查得出的禁用集合
	Since    time.Time `json:"since"`    // 进入当前阶段的时间
}

// Mode 检查模式
type Mode string

const (
	ModeCurrent Mode = "current"
	ModeAll     Mode = "all"
	ModeOffline Mode = "offline"
)

// CheckResult 一轮检查的结果
type CheckResult struct {
	Mode     Mode     `json:"mode"`
	Checked  []string `json:"checked"`  // 参与本轮的端点（含被跳过的）
	Disabled []string `json:"disabled"` // 本轮判定不可用的端点
	Selected string   `json:"selected,omitempty"`
	// Exhausted 被全部禁用、保留原池的代理池
	Exhausted []string `json:"exhausted,omitempty"`
}
