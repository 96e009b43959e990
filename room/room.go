package room

import (
	"errors"
	"sort"
	"sync"

	"roomsync/protocol"
)

// DefaultCapacity 房间满员人数，达到后不再接受加入
const DefaultCapacity = 4

// ErrRoomFull 房间已满
var ErrRoomFull = errors.New("room: full")

// State 房间在匹配状态机中的状态
type State int

const (
	Waiting State = iota // 等待中，可加入
	Full                 // 满员
)

// String 返回状态名（waiting / full）
func (s State) String() string {
	if s == Full {
		return "full"
	}
	return "waiting"
}

// Member 放入房间的连接
type Member interface {
	ID() int64
	Info() protocol.PlayerInfo // 名册条目
	Session() string           // 会话 ID
	Send(f protocol.Frame)     // 非阻塞发送
}

// Room 有容量上限的房间，成员表由自身的锁保护，广播基于成员列表副本
type Room struct {
	id       string
	roomType string
	capacity int

	mu      sync.RWMutex
	state   State
	players map[int64]Member
}

func newRoom(id, roomType string, capacity int) *Room {
	return &Room{
		id:       id,
		roomType: roomType,
		capacity: capacity,
		players:  make(map[int64]Member),
	}
}

// ID 房间编号（room-N）
func (r *Room) ID() string    { return r.id }
func (r *Room) Type() string  { return r.roomType }
func (r *Room) Capacity() int { return r.capacity }

// State 当前匹配状态
func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Len 当前人数
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// AddPlayer 将 m 加入房间，永不超过容量
func (r *Room) AddPlayer(m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[m.ID()]; ok {
		return nil
	}
	if len(r.players) >= r.capacity {
		return ErrRoomFull
	}
	r.players[m.ID()] = m
	if len(r.players) >= r.capacity {
		r.state = Full
	}
	return nil
}

// RemovePlayer 移除成员并重新开放房间，返回房间是否已空
// 从注册表删除由调用方负责
func (r *Room) RemovePlayer(id int64) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; ok {
		delete(r.players, id)
		r.state = Waiting
	}
	return len(r.players) == 0
}

// Has 判断 id 是否为成员
func (r *Room) Has(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[id]
	return ok
}

// Roster 按编号列出除 exclude 以外的成员
func (r *Room) Roster(exclude int64) []protocol.PlayerInfo {
	members := r.members(exclude)
	out := make([]protocol.PlayerInfo, 0, len(members))
	for _, m := range members {
		out = append(out, m.Info())
	}
	return out
}

// Broadcast 发送给除 exclude 以外的所有成员（0 表示不排除）
func (r *Room) Broadcast(f protocol.Frame, exclude int64) {
	for _, m := range r.members(exclude) {
		m.Send(f)
	}
}

// BroadcastAll 发送给所有成员
func (r *Room) BroadcastAll(f protocol.Frame) {
	r.Broadcast(f, 0)
}

// Update 返回该房间的人数消息
func (r *Room) Update() protocol.RoomUpdate {
	return protocol.RoomUpdate{PlayerCount: r.Len(), MaxPlayers: r.capacity}
}

// members 按编号排序的成员副本
func (r *Room) members(exclude int64) []Member {
	r.mu.RLock()
	out := make([]Member, 0, len(r.players))
	for id, m := range r.players {
		if id != exclude {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
