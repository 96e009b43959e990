package client

import (
	"sync"

	"roomsync/protocol"
)

// Hook 某类事件的订阅者列表，回调按订阅顺序在驱动 Client.Update 的协程上执行
type Hook[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe 添加 fn，返回取消订阅的函数（可重复调用）
func (h *Hook[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit 以 v 调用每个订阅者
func (h *Hook[T]) Emit(v T) {
	h.mu.Lock()
	subs := append([]subscriber[T](nil), h.subs...)
	h.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

// RoomStatus 房间人数变化
type RoomStatus struct {
	RoomID      string
	PlayerCount int
	MaxPlayers  int
}

// Events 表现层监听的钩子，聊天与游戏事件的载荷原样透传
type Events struct {
	ConnectionStatus Hook[State]
	RoomUpdate       Hook[RoomStatus]
	JoinedRoom       Hook[protocol.JoinedRoom]
	ChatMessage      Hook[protocol.ChatMessage]
	GameEvent        Hook[protocol.GameEvent]
	PlayerJoined     Hook[protocol.PlayerInfo]
	PlayerLeft       Hook[int64]
}
