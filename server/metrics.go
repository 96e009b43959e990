package server

import (
	"sync/atomic"
)

// Metrics 记录中继运行期的关键指标（用于监控与调试）
type Metrics struct {
	Connections       int64 // 接受的连接数
	Disconnects       int64 // 断开数
	Joins             int64 // 入房次数
	RoomsCreated      int64 // 新建房间数
	RoomsDeleted      int64 // 删除房间数
	MovesRelayed      int64 // 转发的移动数
	ChatRelayed       int64 // 转发的聊天数
	EventsRelayed     int64 // 转发的游戏事件数
	Malformed         int64 // 解码失败被丢弃的帧数
	RateLimited       int64 // 因限流被拒绝的聊天/游戏事件数
	HeartbeatTimeouts int64 // 心跳超时关闭数
	SendDropped       int64 // 因发送队列满被丢弃的帧数
}

func (m *Metrics) IncConnections()       { atomic.AddInt64(&m.Connections, 1) }
func (m *Metrics) IncDisconnects()       { atomic.AddInt64(&m.Disconnects, 1) }
func (m *Metrics) IncJoins()             { atomic.AddInt64(&m.Joins, 1) }
func (m *Metrics) IncRoomsCreated()      { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *Metrics) IncRoomsDeleted()      { atomic.AddInt64(&m.RoomsDeleted, 1) }
func (m *Metrics) IncMovesRelayed()      { atomic.AddInt64(&m.MovesRelayed, 1) }
func (m *Metrics) IncChatRelayed()       { atomic.AddInt64(&m.ChatRelayed, 1) }
func (m *Metrics) IncEventsRelayed()     { atomic.AddInt64(&m.EventsRelayed, 1) }
func (m *Metrics) IncMalformed()         { atomic.AddInt64(&m.Malformed, 1) }
func (m *Metrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *Metrics) IncHeartbeatTimeouts() { atomic.AddInt64(&m.HeartbeatTimeouts, 1) }
func (m *Metrics) IncSendDropped()       { atomic.AddInt64(&m.SendDropped, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"connections":        atomic.LoadInt64(&m.Connections),
		"disconnects":        atomic.LoadInt64(&m.Disconnects),
		"joins":              atomic.LoadInt64(&m.Joins),
		"rooms_created":      atomic.LoadInt64(&m.RoomsCreated),
		"rooms_deleted":      atomic.LoadInt64(&m.RoomsDeleted),
		"moves_relayed":      atomic.LoadInt64(&m.MovesRelayed),
		"chat_relayed":       atomic.LoadInt64(&m.ChatRelayed),
		"events_relayed":     atomic.LoadInt64(&m.EventsRelayed),
		"malformed":          atomic.LoadInt64(&m.Malformed),
		"rate_limited":       atomic.LoadInt64(&m.RateLimited),
		"heartbeat_timeouts": atomic.LoadInt64(&m.HeartbeatTimeouts),
		"send_dropped":       atomic.LoadInt64(&m.SendDropped),
	}
}
