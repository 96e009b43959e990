package server

import (
	"context"
	"time"
)

// RunHeartbeatSweep 每隔 HeartbeatInterval 关闭静默连接，直到 ctx 结束
func (s *Server) RunHeartbeatSweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.log.Infow("heartbeat sweep closed connections", "count", n)
			}
		}
	}
}

// Sweep 关闭最后心跳早于超时阈值的连接，返回关闭数量
// 关闭后由正常的离开流程清理房间
func (s *Server) Sweep(now time.Time) int {
	cutoff := now.Add(-s.cfg.HeartbeatTimeout).UnixMilli()

	s.mu.Lock()
	var stale []*ClientConn
	for _, c := range s.conns {
		if c.lastHeartbeat.Load() < cutoff {
			stale = append(stale, c)
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		s.metrics.IncHeartbeatTimeouts()
		c.log.Infow("heartbeat timeout, closing")
		c.Close()
	}
	return len(stale)
}
