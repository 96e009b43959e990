package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"roomsync/protocol"
)

// ConnState 单个连接的生命周期状态
type ConnState int

const (
	Connected ConnState = iota // 已连接，尚未入房
	InRoom                     // 已入房
	Closed                     // 已关闭
)

// String 返回状态名，用于日志
func (s ConnState) String() string {
	switch s {
	case InRoom:
		return "in-room"
	case Closed:
		return "closed"
	}
	return "connected"
}

const (
	writeWait    = 5 * time.Second
	maxFrameSize = 64 << 10
)

// ClientConn 一个已连接的客户端：底层 WS、出站队列以及服务端缓存的玩家视图
type ClientConn struct {
	id      int64
	session string
	ws      *websocket.Conn
	log     *zap.SugaredLogger
	metrics *Metrics

	send      chan protocol.Frame
	done      chan struct{}
	closeOnce sync.Once

	lastHeartbeat atomic.Int64 // 毫秒时间戳
	limiter       *rate.Limiter

	mu       sync.Mutex
	state    ConnState
	roomID   string
	position protocol.Vec3
	identity protocol.Identity
	stamp    int64 // 最近一次转发的时间戳（毫秒）
}

func newClientConn(id int64, session string, ws *websocket.Conn, cfg Config, log *zap.SugaredLogger, m *Metrics) *ClientConn {
	return &ClientConn{
		id:       id,
		session:  session,
		ws:       ws,
		log:      log,
		metrics:  m,
		send:     make(chan protocol.Frame, cfg.SendQueue),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(rate.Limit(cfg.ChatRate), cfg.ChatBurst),
		position: protocol.Vec3{Y: 1.5},
	}
}

// ID 玩家编号
func (c *ClientConn) ID() int64 { return c.id }

// Session 连接的会话 ID（uuid），写入日志与房间快照
func (c *ClientConn) Session() string { return c.session }

// Info 其他玩家看到的该客户端名册条目
func (c *ClientConn) Info() protocol.PlayerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return protocol.PlayerInfo{ID: c.id, Position: c.position, Identity: c.identity}
}

// State 当前连接状态
func (c *ClientConn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID 所在房间，入房前为空
func (c *ClientConn) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *ClientConn) enterRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	if c.state != Closed {
		c.state = InRoom
	}
	c.mu.Unlock()
}

func (c *ClientConn) setIdentity(id protocol.Identity) {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
}

func (c *ClientConn) name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.Name
}

func (c *ClientConn) setPosition(p protocol.Vec3) {
	c.mu.Lock()
	c.position = p
	c.mu.Unlock()
}

// nextStamp 为 now 收到的移动分配转发时间戳
// 同一连接内严格递增，同一毫秒内的多次移动对其他玩家仍是不同的采样
func (c *ClientConn) nextStamp(now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stamp = max(c.stamp+1, now.UnixMilli())
	return c.stamp
}

func (c *ClientConn) touch(now time.Time) {
	c.lastHeartbeat.Store(now.UnixMilli())
}

// Send 非阻塞地压入出站队列，满则丢弃（慢读者不拖住房间广播）
func (c *ClientConn) Send(f protocol.Frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
		c.metrics.IncSendDropped()
		c.log.Debugw("send queue full, frame dropped", "kind", f.Kind)
	}
}

// SendMessage 编码后压入出站队列
func (c *ClientConn) SendMessage(m protocol.Message) {
	f, err := protocol.Encode(m)
	if err != nil {
		c.log.Warnw("encode failed", "type", m.MessageType(), "err", err)
		return
	}
	c.Send(f)
}

// Close 关闭底层连接，读泵随后走离开流程
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = Closed
		c.mu.Unlock()
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，将发送队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(f.Kind, f.Data); err != nil {
				c.log.Debugw("write failed", "err", err)
				c.Close()
				return
			}
		}
	}
}

// readPump 解码入站帧并交给 handle，直到连接出错
// 格式错误的帧直接丢弃，不断开连接
func (c *ClientConn) readPump(handle func(*ClientConn, protocol.Message)) {
	c.ws.SetReadLimit(maxFrameSize)
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debugw("read failed", "err", err)
			}
			return
		}
		msg, err := protocol.Decode(protocol.Frame{Kind: kind, Data: data})
		if err != nil {
			c.metrics.IncMalformed()
			c.log.Warnw("dropping malformed frame", "err", err)
			continue
		}
		handle(c, msg)
	}
}
