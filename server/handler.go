package server

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"roomsync/protocol"
	"roomsync/room"
)

const defaultAvatar = "BitcoinGuy"

func connectedMsg(id int64) protocol.Connected { return protocol.Connected{ID: id} }

func leftMsg(id int64) protocol.PlayerLeft { return protocol.PlayerLeft{ID: id} }

// broadcast 只编码一次，再分发给房间内其他成员
func broadcast(r *room.Room, m protocol.Message, exclude int64, log *zap.SugaredLogger) {
	f, err := protocol.Encode(m)
	if err != nil {
		log.Warnw("encode failed", "type", m.MessageType(), "err", err)
		return
	}
	r.Broadcast(f, exclude)
}

// handle 分发来自 c 的一条已解码消息
func (s *Server) handle(c *ClientConn, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.JoinGame:
		s.handleJoin(c, m)
	case protocol.Move:
		s.handleMove(c, m)
	case protocol.Heartbeat:
		c.touch(s.now())
		c.SendMessage(protocol.HeartbeatAck{})
	case protocol.ChatMessage:
		s.handleChat(c, m)
	case protocol.GameEvent:
		s.handleGameEvent(c, m)
	default:
		c.log.Debugw("ignoring unexpected message", "type", msg.MessageType())
	}
}

// handleJoin 处理入房：补全身份、匹配房间、下发名册并通知其他成员
func (s *Server) handleJoin(c *ClientConn, m protocol.JoinGame) {
	if c.State() != Connected {
		c.log.Debugw("join ignored", "state", c.State())
		return
	}

	identity := protocol.Identity{}
	if m.Identity != nil {
		identity = *m.Identity
	}
	identity.Name = strings.TrimSpace(identity.Name)
	if identity.Name == "" {
		identity.Name = fmt.Sprintf("Player%d", c.id)
	}
	if identity.AvatarID == "" {
		identity.AvatarID = defaultAvatar
	}
	c.setIdentity(identity)

	roomType := m.RoomType
	if roomType == "" {
		roomType = s.cfg.DefaultRoomType
	}

	// 名册与 playerJoined 在注册表锁内入队，并发入房者无法插到两者之间
	r, created, err := s.rooms.JoinWith(roomType, c, func(r *room.Room) {
		c.enterRoom(r.ID())
		c.SendMessage(protocol.JoinedRoom{
			RoomID:     r.ID(),
			RoomType:   r.Type(),
			PlayerID:   c.id,
			Players:    r.Roster(c.id),
			MaxPlayers: r.Capacity(),
		})
		broadcast(r, protocol.PlayerJoined{Player: c.Info()}, c.id, c.log)
	})
	if err != nil {
		c.log.Warnw("join failed", "roomType", roomType, "err", err)
		return
	}
	s.metrics.IncJoins()
	if created {
		s.metrics.IncRoomsCreated()
	}
	broadcast(r, r.Update(), 0, c.log)

	c.log.Infow("client joined",
		"room", r.ID(), "roomType", roomType, "players", r.Len(), "max", r.Capacity())
}

// handleMove 缓存位置（供后来者的名册使用）并转发移动
// 入房前的移动属正常情况，直接忽略
func (s *Server) handleMove(c *ClientConn, m protocol.Move) {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	c.setPosition(m.Position)
	r, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	broadcast(r, m.Relay(c.id, c.nextStamp(s.now())), c.id, c.log)
	s.metrics.IncMovesRelayed()
}

// handleChat 清理文本、截断到上限后广播给全房间（含发送者）
func (s *Server) handleChat(c *ClientConn, m protocol.ChatMessage) {
	r, ok := s.relayRoom(c)
	if !ok {
		return
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	text = truncateRunes(text, protocol.MaxChatLength)

	broadcast(r, protocol.ChatMessage{
		Author:    c.name(),
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}, 0, c.log)
	s.metrics.IncChatRelayed()
}

// handleGameEvent 打上发送者与时间戳后原样转发给全房间
func (s *Server) handleGameEvent(c *ClientConn, m protocol.GameEvent) {
	r, ok := s.relayRoom(c)
	if !ok {
		return
	}
	m.PlayerID = c.id
	m.Timestamp = s.now().UnixMilli()
	broadcast(r, m, 0, c.log)
	s.metrics.IncEventsRelayed()
}

// relayRoom 为聊天和游戏事件解析发送者所在房间，并做限流
func (s *Server) relayRoom(c *ClientConn) (*room.Room, bool) {
	roomID := c.RoomID()
	if roomID == "" {
		return nil, false
	}
	if !c.limiter.Allow() {
		s.metrics.IncRateLimited()
		c.log.Debugw("rate limited")
		return nil, false
	}
	return s.rooms.Get(roomID)
}

// truncateRunes 按字符（非字节）截断
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
