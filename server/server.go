package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsync/logging"
	"roomsync/room"
)

// Server 接入 WebSocket 客户端，分配房间并把消息转发给同房间的其他玩家
type Server struct {
	cfg     Config
	log     *zap.SugaredLogger
	rooms   *room.Registry
	metrics *Metrics
	now     func() time.Time

	upgrader websocket.Upgrader
	nextID   atomic.Int64

	mu    sync.Mutex
	conns map[int64]*ClientConn
}

// Option 定制 Server 的可选项
type Option func(*Server)

// WithClock 替换时间戳与心跳使用的时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New 创建服务器及其房间注册表，缺省字段取 DefaultConfig
func New(cfg Config, log *zap.SugaredLogger, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = def.SendQueue
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = def.HeartbeatTimeout
	}
	if cfg.ChatRate <= 0 {
		cfg.ChatRate, cfg.ChatBurst = def.ChatRate, def.ChatBurst
	}
	if cfg.DefaultRoomType == "" {
		cfg.DefaultRoomType = def.DefaultRoomType
	}
	s := &Server{
		cfg:     cfg,
		log:     logging.OrNop(log),
		rooms:   room.NewRegistry(cfg.Capacity),
		metrics: &Metrics{},
		now:     time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 游戏客户端可能来自任意来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]*ClientConn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rooms 房间注册表
func (s *Server) Rooms() *room.Registry { return s.rooms }

// Metrics 运行指标
func (s *Server) Metrics() *Metrics { return s.metrics }

// ConnCount 当前打开的连接数
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// HandleWS WebSocket 接入：升级连接并服务到断开为止
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := s.nextID.Add(1)
	session := uuid.NewString()
	c := newClientConn(id, session, ws, s.cfg, s.log.With("client", id, "session", session), s.metrics)
	c.touch(s.now())

	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
	s.metrics.IncConnections()
	c.log.Infow("client connected", "remote", r.RemoteAddr)

	c.SendMessage(connectedMsg(id))

	go c.writePump()
	go func() {
		defer s.disconnect(c)
		c.readPump(s.handle)
	}()
}

// disconnect 所有关闭方式共用的唯一离开流程
func (s *Server) disconnect(c *ClientConn) {
	c.Close()

	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.metrics.IncDisconnects()

	roomID := c.RoomID()
	if roomID == "" {
		c.log.Infow("client disconnected")
		return
	}
	r, deleted := s.rooms.Leave(roomID, c.id)
	switch {
	case r == nil:
	case deleted:
		s.metrics.IncRoomsDeleted()
		c.log.Infow("room deleted (empty)", "room", roomID)
	default:
		broadcast(r, leftMsg(c.id), 0, c.log)
		broadcast(r, r.Update(), 0, c.log)
	}
	c.log.Infow("client disconnected", "room", roomID)
}

// Close 关闭所有打开的连接
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*ClientConn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
