package server

import (
	"flag"
	"os"
	"time"

	"roomsync/room"
)

// Config 中继服务配置
type Config struct {
	Addr    string
	LogPath string
	Debug   bool

	Capacity        int
	DefaultRoomType string

	HeartbeatInterval time.Duration // 心跳巡检周期
	HeartbeatTimeout  time.Duration // 静默超过该时长即关闭连接

	SendQueue int // 每连接出站队列长度，满则丢帧

	ChatRate  float64 // 每连接每秒允许的聊天与游戏事件数
	ChatBurst int     // 突发上限
}

// DefaultConfig 返回默认配置（端口 8080，房间容量 4）
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Capacity:          room.DefaultCapacity,
		DefaultRoomType:   "arena-empty",
		HeartbeatInterval: 5 * time.Second,
		HeartbeatTimeout:  30 * time.Second,
		SendQueue:         64,
		ChatRate:          5,
		ChatBurst:         10,
	}
}

// RegisterFlags 将配置字段绑定到命令行参数
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "server listen address, e.g. :8080")
	fs.StringVar(&c.LogPath, "log", c.LogPath, "rolling log file path (stderr when empty)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging")
	fs.StringVar(&c.DefaultRoomType, "default-room", c.DefaultRoomType, "room type used when a join names none")
	fs.DurationVar(&c.HeartbeatInterval, "heartbeat-interval", c.HeartbeatInterval, "heartbeat sweep period")
	fs.DurationVar(&c.HeartbeatTimeout, "heartbeat-timeout", c.HeartbeatTimeout, "close sockets silent for this long")
	fs.IntVar(&c.SendQueue, "send-queue", c.SendQueue, "outbound frames buffered per connection")
	fs.Float64Var(&c.ChatRate, "chat-rate", c.ChatRate, "chat and game events per second per connection")
	fs.IntVar(&c.ChatBurst, "chat-burst", c.ChatBurst, "chat and game event burst per connection")
}

// ApplyEnv 允许部署环境通过 PORT 与 ROOMSYNC_LOG 覆盖端口和日志路径
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if p := os.Getenv("ROOMSYNC_LOG"); p != "" {
		c.LogPath = p
	}
}
