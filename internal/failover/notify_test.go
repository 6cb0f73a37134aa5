package failover

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestBus_DeliversAndKeepsHistory(t *testing.T) {
	bus := NewBus(2)
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bus.Notify(EventUserNotOnline)
	bus.Notify(EventAPINotAvailable)
	bus.Notify(EventProxyNotAvailable)

	for _, want := range []Event{EventUserNotOnline, EventAPINotAvailable, EventProxyNotAvailable} {
		select {
		case n := <-ch:
			if n.Event != want {
				t.Fatalf("event=%s, want %s", n.Event, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("未收到 %s", want)
		}
	}

	recent := bus.Recent()
	if len(recent) != 2 || recent[0].Event != EventAPINotAvailable || recent[1].Event != EventProxyNotAvailable {
		t.Fatalf("history=%+v", recent)
	}
}

func TestBus_FullSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(10)
	_, cancel := bus.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for range 5 {
			bus.Notify(EventAPINotAvailable)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("订阅者缓冲满时 Notify 阻塞")
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(0)
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("取消订阅后通道应关闭")
	}
	bus.Notify(EventUserNotOnline) // 不得向已关闭通道发送
}

func TestNotifiers_FanOut(t *testing.T) {
	var a, b []Event
	ns := Notifiers{
		NotifierFunc(func(e Event) { a = append(a, e) }),
		NotifierFunc(func(e Event) { b = append(b, e) }),
	}
	ns.Notify(EventUserNotOnline)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("a=%v b=%v", a, b)
	}
}

func TestDialOracle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	oracle := NewDialOracle(addr, time.Second)
	if !oracle.Online(context.Background()) {
		t.Fatal("监听中的地址应判定在线")
	}

	_ = ln.Close()
	if oracle.Online(context.Background()) {
		t.Fatal("已关闭的地址应判定离线")
	}
}
