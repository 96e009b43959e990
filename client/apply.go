package client

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"roomsync/component"
	"roomsync/ecs"
	"roomsync/protocol"
)

// handle 按类型分发一条服务端消息
func (c *Client) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Connected:
		c.mu.Lock()
		c.connID = m.ID
		c.mu.Unlock()
		if c.cfg.AutoJoin {
			id := c.cfg.Identity
			if err := c.JoinGame(&id, c.cfg.RoomType); err != nil {
				c.log.Warnw("auto join failed", "err", err)
			}
		}
	case protocol.JoinedRoom:
		c.joined(m)
	case protocol.PlayerJoined:
		if c.addPeer(m.Player) {
			c.Events.PlayerJoined.Emit(m.Player)
		}
	case protocol.PlayerLeft:
		c.removePeer(m.ID)
	case protocol.PlayerMoved:
		c.moved(m)
	case protocol.RoomUpdate:
		c.Events.RoomUpdate.Emit(RoomStatus{
			RoomID:      c.RoomID(),
			PlayerCount: m.PlayerCount,
			MaxPlayers:  m.MaxPlayers,
		})
	case protocol.ChatMessage:
		c.Events.ChatMessage.Emit(m)
	case protocol.GameEvent:
		c.Events.GameEvent.Emit(m)
	case protocol.HeartbeatAck:
	default:
		c.log.Debugw("ignoring message", "type", msg.MessageType())
	}
}

// joined 开始会话：本地玩家不存在时生成，名册中每个玩家生成远端角色
// 名册到达前已通知的玩家保留，只有断线才会清空
func (c *Client) joined(m protocol.JoinedRoom) {
	c.mu.Lock()
	c.playerID, c.roomID, c.roomType = m.PlayerID, m.RoomID, m.RoomType
	c.state = InRoom
	c.mu.Unlock()

	if _, ok := c.store.Local(); !ok {
		if _, err := ecs.SpawnLocalPlayer(c.store, c.world, ecs.SpawnPoint); err != nil {
			c.log.Errorw("spawn local player", "err", err)
		}
	}
	c.log.Infow("joined room", "room", m.RoomID, "roomType", m.RoomType, "player", m.PlayerID, "peers", len(m.Players))

	c.Events.JoinedRoom.Emit(m)
	for _, p := range m.Players {
		if c.addPeer(p) {
			c.Events.PlayerJoined.Emit(p)
		}
	}
}

// addPeer 为新玩家生成远端角色，自己或已存在时返回 false
func (c *Client) addPeer(p protocol.PlayerInfo) bool {
	if p.ID == c.PlayerID() {
		return false
	}
	if _, ok := c.peers[p.ID]; ok {
		return false
	}
	c.peers[p.ID] = ecs.SpawnRemotePlayer(c.store, c.world, p.ID, vec3(p.Position), c.cfg.BufferCapacity)
	return true
}

// removePeer 销毁远端角色并通知表现层
func (c *Client) removePeer(id int64) {
	e, ok := c.peers[id]
	if !ok {
		return
	}
	delete(c.peers, id)
	ecs.DestroyPlayer(c.store, c.world, e)
	c.Events.PlayerLeft.Emit(id)
}

// moved 缓存远端采样，并按其标志选择片段
// 过旧的采样整体丢弃
func (c *Client) moved(m protocol.PlayerMoved) {
	e, ok := c.peers[m.ID]
	if !ok {
		return
	}
	entry, err := c.store.Entry(e)
	if err != nil {
		delete(c.peers, m.ID)
		return
	}
	if !component.Interpolation.Get(entry).Push(vec3(m.Position), quat(m.Rotation), m.Timestamp) {
		return
	}
	component.Network.Get(entry).LastUpdate = m.Timestamp
	component.Player.Get(entry).IsGrounded = m.IsGrounded
	anim := component.Animation.Get(entry)
	anim.Transition(anim.Select(m.IsMoving, m.IsSprinting, m.IsGrounded))
}

// clearPeers 销毁所有远端角色
func (c *Client) clearPeers() {
	for id := range c.peers {
		c.removePeer(id)
	}
}

// clearSession 销毁所有角色，包括本地玩家
func (c *Client) clearSession() {
	c.clearPeers()
	if e, ok := c.store.Local(); ok {
		ecs.DestroyPlayer(c.store, c.world, e.Entity())
	}
}

// localMove 生成本地玩家的线路快照
func (c *Client) localMove(now time.Time) (protocol.Move, bool) {
	e, ok := c.store.Local()
	if !ok {
		return protocol.Move{}, false
	}
	m := protocol.Move{
		Position:   wireVec3(*component.Position.Get(e)),
		Rotation:   protocol.IdentityQuat,
		IsGrounded: component.Player.Get(e).IsGrounded,
		Timestamp:  now.UnixMilli(),
	}
	if e.HasComponent(component.Rotation) {
		m.Rotation = wireQuat(*component.Rotation.Get(e))
	}
	if e.HasComponent(component.Input) {
		in := component.Input.Get(e)
		m.IsMoving = in.Moving()
		m.IsSprinting = m.IsMoving && in.Sprint
	}
	return m, true
}

// vec3 线路坐标转 mgl64
func vec3(v protocol.Vec3) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func wireVec3(v mgl64.Vec3) protocol.Vec3 { return protocol.Vec3{X: v[0], Y: v[1], Z: v[2]} }

// quat 读取 [x, y, z, w] 旋转，退化输入视为无旋转
func quat(q protocol.Quat) mgl64.Quat {
	r := mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
	if r.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	return r.Normalize()
}

func wireQuat(q mgl64.Quat) protocol.Quat { return protocol.Quat{q.V[0], q.V[1], q.V[2], q.W} }
