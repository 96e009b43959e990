// Package client 复制客户端：向中继上报本地玩家，把其他玩家的更新写入实体存储，断线后自动重连
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"roomsync/ecs"
	"roomsync/logging"
	"roomsync/physics"
	"roomsync/protocol"
)

// 客户端错误
var (
	ErrNotConnected = errors.New("client: not connected")
	ErrNotInRoom    = errors.New("client: not in a room")
	ErrChatTooLong  = errors.New("client: chat message too long")
	ErrEmptyChat    = errors.New("client: empty chat message")
	ErrClosed       = errors.New("client: closed")
)

// State 表现层看到的会话生命周期
type State int

const (
	Disconnected State = iota // 未连接
	Connected                 // 已连接，未入房
	InRoom                    // 已入房
)

// String 返回状态名，用于日志
func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case InRoom:
		return "in-room"
	}
	return "disconnected"
}

// Option 定制 Client 的可选项
type Option func(*Client)

// WithClock 替换上报节流与时间戳使用的时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithDialer 替换 WebSocket 拨号器
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// Client 将一个会话映射到实体存储
// Update 必须在模拟协程上调用，Send 与 Join 系列方法可在任意协程调用
type Client struct {
	Events Events

	cfg   Config
	log   *zap.SugaredLogger
	store *ecs.Store
	world *physics.World
	now   func() time.Time
	dial  Dialer

	inbox chan event
	done  chan struct{}

	mu        sync.Mutex
	link      transport
	state     State
	closed    bool
	reconnect *time.Timer
	connID    int64
	playerID  int64
	roomID    string
	roomType  string

	// 仅由模拟协程访问
	peers         map[int64]ecs.Entity
	moves         *rate.Limiter
	lastHeartbeat time.Time
}

// New 创建复制客户端，尚未连接
func New(cfg Config, store *ecs.Store, world *physics.World, log *zap.SugaredLogger, opts ...Option) *Client {
	cfg.fill()
	c := &Client{
		cfg:   cfg,
		log:   logging.OrNop(log),
		store: store,
		world: world,
		now:   time.Now,
		dial:  defaultDial,
		inbox: make(chan event, cfg.InboxSize),
		done:  make(chan struct{}),
		peers: make(map[int64]ecs.Entity),
		moves: rate.NewLimiter(rate.Every(cfg.SendInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) String() string { return "replication" }

// State 当前会话状态
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PlayerID 服务端分配的本地玩家编号，入房前为 0
func (c *Client) PlayerID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// RoomID 当前房间，入房前为空
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Peer 返回对应远端玩家的实体
func (c *Client) Peer(id int64) (ecs.Entity, bool) {
	e, ok := c.peers[id]
	return e, ok
}

// PeerCount 远端玩家数
func (c *Client) PeerCount() int { return len(c.peers) }

// Connect 拨号连接中继，断线后每隔 ReconnectDelay 重拨，直到 Close
func (c *Client) Connect(ctx context.Context) error {
	ws, err := c.dial(ctx, c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	l := newLink(ws, c.cfg.SendQueue, c.log)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		l.Close()
		return ErrClosed
	}
	c.link = l
	c.state = Connected
	c.mu.Unlock()

	c.post(event{from: l, up: true})
	go l.writePump()
	go l.readPump(c.post)
	c.log.Infow("connected", "url", c.cfg.URL)
	return nil
}

// attach 安装已打开的连接
func (c *Client) attach(t transport) {
	c.mu.Lock()
	c.link = t
	c.state = Connected
	c.mu.Unlock()
	c.post(event{from: t, up: true})
}

// post 投递到收件箱，关闭后丢弃
func (c *Client) post(ev event) {
	select {
	case c.inbox <- ev:
	case <-c.done:
	}
}

// Close 断开连接并取消待执行的重连
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
	}
	l := c.link
	c.link = nil
	c.state = Disconnected
	c.mu.Unlock()

	close(c.done)
	if l != nil {
		l.Close()
	}
}

// Shutdown 调度器停止时关闭客户端
func (c *Client) Shutdown() { c.Close() }

// JoinGame 请求加入 roomType 类型的房间，identity 为 nil 时由服务端补全名字和头像
func (c *Client) JoinGame(identity *protocol.Identity, roomType string) error {
	if c.State() == Disconnected {
		return ErrNotConnected
	}
	return c.send(protocol.JoinGame{Identity: identity, RoomType: roomType})
}

// SendChat 向房间发送聊天，超过 MaxChatLength 个字符直接拒绝而不截断
func (c *Client) SendChat(text string) error {
	if err := c.requireRoom(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyChat
	}
	if utf8.RuneCountInString(text) > protocol.MaxChatLength {
		return ErrChatTooLong
	}
	return c.send(protocol.ChatMessage{Text: text})
}

// SendGameEvent 向房间转发不透明载荷，data 以 JSON 编码
func (c *Client) SendGameEvent(eventType string, data any) error {
	if err := c.requireRoom(); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return c.send(protocol.GameEvent{EventType: eventType, Data: raw})
}

// requireRoom 未入房时返回对应错误
func (c *Client) requireRoom() error {
	switch c.State() {
	case Disconnected:
		return ErrNotConnected
	case Connected:
		return ErrNotInRoom
	}
	return nil
}

// send 编码并压入发送队列，队列满时丢弃
func (c *Client) send(m protocol.Message) error {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()
	if l == nil {
		return ErrNotConnected
	}
	f, err := protocol.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	if !l.Send(f) {
		c.log.Debugw("send queue full, frame dropped", "type", m.MessageType())
	}
	return nil
}

// Update 应用上一帧以来收到的全部消息，再按周期发送心跳与本地移动
func (c *Client) Update(float64, float64) error {
	for n := len(c.inbox); n > 0; n-- {
		c.apply(<-c.inbox)
	}

	now := c.now()
	state := c.State()
	if state == Disconnected {
		return nil
	}
	var err error
	if state == InRoom {
		err = c.sendMove(now)
	}
	if now.Sub(c.lastHeartbeat) >= c.cfg.HeartbeatInterval {
		c.lastHeartbeat = now
		err = errors.Join(err, c.send(protocol.Heartbeat{}))
	}
	return err
}

// sendMove 按 SendInterval 节流上报本地移动
func (c *Client) sendMove(now time.Time) error {
	m, ok := c.localMove(now)
	if !ok || !c.moves.AllowN(now, 1) {
		return nil
	}
	return c.send(m)
}

// current t 是否仍是当前连接（旧连接的事件被忽略）
func (c *Client) current(t transport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link == t && t != nil
}

// apply 在模拟协程上处理一个收件箱事件
func (c *Client) apply(ev event) {
	if !c.current(ev.from) {
		return
	}
	switch {
	case ev.up:
		c.lastHeartbeat = c.now()
		c.Events.ConnectionStatus.Emit(Connected)
	case ev.down:
		c.lost(ev.from)
	default:
		c.handle(ev.msg)
	}
}

// lost 拆除会话并安排重拨
func (c *Client) lost(t transport) {
	c.mu.Lock()
	c.link = nil
	c.state = Disconnected
	c.playerID, c.roomID, c.roomType = 0, "", ""
	c.mu.Unlock()
	t.Close()

	c.clearSession()
	c.log.Warnw("connection lost", "retryIn", c.cfg.ReconnectDelay)
	c.Events.ConnectionStatus.Emit(Disconnected)
	c.scheduleReconnect()
}

// scheduleReconnect ReconnectDelay 后重拨，失败则继续安排
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.reconnect = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
		defer cancel()
		if err := c.Connect(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			c.log.Warnw("reconnect failed", "err", err)
			c.scheduleReconnect()
		}
	})
}
