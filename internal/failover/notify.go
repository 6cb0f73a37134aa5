package failover

import (
	"sync"
	"time"
)

// Event 通知事件（无负载，宿主应用自行决定如何呈现）
type Event string

const (
	EventUserNotOnline     Event = "user-not-online"
	EventAPINotAvailable   Event = "api-not-available"
	EventProxyNotAvailable Event = "proxy-not-available"
)

// Notifier 通知接收方（fire-and-forget，不得阻塞）
type Notifier interface {
	Notify(Event)
}

// NotifierFunc 函数适配器
type NotifierFunc func(Event)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(e Event) {
	f(e)
}

// Notification 带时间的事件记录
type Notification struct {
	Event Event     `json:"event"`
	Time  time.Time `json:"time"`
}

// Bus 进程内事件总线
// 非阻塞投递：订阅者缓冲满时丢弃该事件；保留最近 N 条供查询
type Bus struct {
	mu      sync.RWMutex
	subs    map[chan Notification]struct{}
	history []Notification
	limit   int
}

// NewBus 创建事件总线
func NewBus(historyLimit int) *Bus {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Bus{
		subs:    make(map[chan Notification]struct{}),
		history: make([]Notification, 0, historyLimit),
		limit:   historyLimit,
	}
}

// Notify 发布事件
func (b *Bus) Notify(e Event) {
	n := Notification{Event: e, Time: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) >= b.limit {
		b.history = append(b.history[1:], n)
	} else {
		b.history = append(b.history, n)
	}
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe 订阅事件，返回接收通道与取消函数
func (b *Bus) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, max(buffer, 1))

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Recent 最近的事件（旧→新）
func (b *Bus) Recent() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Notification(nil), b.history...)
}

// Notifiers 组合多个接收方
type Notifiers []Notifier

// Notify 依次投递
func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		n.Notify(e)
	}
}
