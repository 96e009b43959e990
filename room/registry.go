package room

import (
	"fmt"
	"sync"
)

// Info 房间的只读视图（用于运维面板）
type Info struct {
	ID          string   `json:"id"`
	RoomType    string   `json:"roomType"`
	State       string   `json:"state"`
	PlayerCount int      `json:"playerCount"`
	MaxPlayers  int      `json:"maxPlayers"`
	Sessions    []string `json:"sessions"` // 成员的会话 ID，按玩家编号排序
}

// Registry 管理房间表与房间编号计数器
// 匹配、入房、离开都持有注册表锁，满员或已删除的房间不会再被分配
type Registry struct {
	capacity int

	mu     sync.Mutex
	nextID int64
	rooms  []*Room // 按创建顺序，线性扫描
	byID   map[string]*Room
}

// NewRegistry 创建空注册表，capacity <= 0 时取 DefaultCapacity
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		byID:     make(map[string]*Room),
	}
}

// Capacity 新建房间的容量
func (g *Registry) Capacity() int { return g.capacity }

// FindOrCreate 返回该类型最早创建的等待中房间，没有则新建
func (g *Registry) FindOrCreate(roomType string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findOrCreateLocked(roomType)
}

func (g *Registry) findOrCreateLocked(roomType string) *Room {
	for _, r := range g.rooms {
		if r.roomType == roomType && r.State() == Waiting {
			return r
		}
	}
	g.nextID++
	r := newRoom(fmt.Sprintf("room-%d", g.nextID), roomType, g.capacity)
	g.rooms = append(g.rooms, r)
	g.byID[r.id] = r
	return r
}

// Join 为 m 匹配该类型的等待中房间并加入，返回的 bool 表示是否新建了房间
func (g *Registry) Join(roomType string, m Member) (*Room, bool, error) {
	return g.JoinWith(roomType, m, nil)
}

// JoinWith 同 Join，但在注册表锁内、加入成功后立即调用 welcome
// welcome 入队的帧先于任何后续入房或离开引起的帧到达 m
func (g *Registry) JoinWith(roomType string, m Member, welcome func(*Room)) (*Room, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	before := g.nextID
	r := g.findOrCreateLocked(roomType)
	if err := r.AddPlayer(m); err != nil {
		return nil, false, err
	}
	if welcome != nil {
		welcome(r)
	}
	return r, g.nextID != before, nil
}

// Leave 将 memberID 移出房间，房间因此变空时删除房间并返回 deleted=true
// 房间不存在时返回 (nil, false)
func (g *Registry) Leave(roomID string, memberID int64) (r *Room, deleted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.byID[roomID]
	if !ok {
		return nil, false
	}
	if r.RemovePlayer(memberID) {
		g.deleteLocked(roomID)
		return r, true
	}
	return r, false
}

// Get 按编号查找房间
func (g *Registry) Get(roomID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.byID[roomID]
	return r, ok
}

// Delete 从房间表中移除房间，仍持有它的成员可以完成进行中的广播
func (g *Registry) Delete(roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteLocked(roomID)
}

func (g *Registry) deleteLocked(roomID string) {
	if _, ok := g.byID[roomID]; !ok {
		return
	}
	delete(g.byID, roomID)
	for i, r := range g.rooms {
		if r.id == roomID {
			g.rooms = append(g.rooms[:i], g.rooms[i+1:]...)
			break
		}
	}
}

// Len 当前房间数
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Snapshot 按创建顺序列出所有房间
func (g *Registry) Snapshot() []Info {
	g.mu.Lock()
	rooms := append([]*Room(nil), g.rooms...)
	g.mu.Unlock()

	out := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		members := r.members(0)
		sessions := make([]string, 0, len(members))
		for _, m := range members {
			sessions = append(sessions, m.Session())
		}
		r.mu.RLock()
		out = append(out, Info{
			ID:          r.id,
			RoomType:    r.roomType,
			State:       r.state.String(),
			PlayerCount: len(r.players),
			MaxPlayers:  r.capacity,
			Sessions:    sessions,
		})
		r.mu.RUnlock()
	}
	return out
}
