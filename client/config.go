package client

import (
	"flag"
	"time"

	"roomsync/interp"
	"roomsync/protocol"
)

// Config 复制客户端配置
type Config struct {
	URL      string
	RoomType string
	Identity protocol.Identity
	AutoJoin bool // 收到 connected 后立即发送 joinGame

	SendInterval      time.Duration // 移动上报周期
	HeartbeatInterval time.Duration // 心跳周期
	ReconnectDelay    time.Duration // 断线后重连等待
	DialTimeout       time.Duration // 拨号超时

	BufferCapacity int // 每个远端角色的插值采样数
	SendQueue      int // 出站队列长度
	InboxSize      int // 收件箱长度
}

// DefaultConfig 默认配置：50ms 上报，10s 心跳，3s 重连
func DefaultConfig() Config {
	return Config{
		URL:               "ws://localhost:8080/ws",
		RoomType:          "arena-empty",
		AutoJoin:          true,
		SendInterval:      50 * time.Millisecond,
		HeartbeatInterval: 10 * time.Second,
		ReconnectDelay:    3 * time.Second,
		DialTimeout:       5 * time.Second,
		BufferCapacity:    interp.DefaultCapacity,
		SendQueue:         64,
		InboxSize:         256,
	}
}

// RegisterFlags 将配置字段绑定到命令行参数
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "url", c.URL, "relay websocket url")
	fs.StringVar(&c.RoomType, "room", c.RoomType, "room type to join")
	fs.StringVar(&c.Identity.Name, "name", c.Identity.Name, "display name")
	fs.StringVar(&c.Identity.AvatarID, "avatar", c.Identity.AvatarID, "avatar id")
	fs.BoolVar(&c.AutoJoin, "auto-join", c.AutoJoin, "join a room once connected")
	fs.DurationVar(&c.SendInterval, "send-interval", c.SendInterval, "period between move updates")
	fs.DurationVar(&c.HeartbeatInterval, "heartbeat", c.HeartbeatInterval, "heartbeat period")
	fs.DurationVar(&c.ReconnectDelay, "reconnect-delay", c.ReconnectDelay, "wait before redialing a lost connection")
}

// fill 为非法字段补默认值
func (c *Config) fill() {
	def := DefaultConfig()
	if c.SendInterval <= 0 {
		c.SendInterval = def.SendInterval
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = def.BufferCapacity
	}
	if c.SendQueue <= 0 {
		c.SendQueue = def.SendQueue
	}
	if c.InboxSize <= 0 {
		c.InboxSize = def.InboxSize
	}
}
