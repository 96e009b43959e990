package systems

import (
	"sync"

	"go.uber.org/zap"

	"roomsync/logging"
)

// Script 由客户端托管的游戏逻辑，回调在模拟协程上执行
type Script interface {
	OnPlayerJoin(id int64)
	OnPlayerLeave(id int64)
	OnUpdate(dt float64)
}

// Scripts 将生命周期回调分发给所有已加载脚本，并驱动其每帧更新
// panic 的脚本只记录日志并跳过
type Scripts struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	scripts []Script
}

// NewScripts 创建脚本宿主
func NewScripts(log *zap.SugaredLogger) *Scripts {
	return &Scripts{log: logging.OrNop(log)}
}

func (s *Scripts) String() string { return "scripts" }

// Load 加载脚本
func (s *Scripts) Load(sc Script) {
	s.mu.Lock()
	s.scripts = append(s.scripts, sc)
	s.mu.Unlock()
}

// Len 已加载脚本数
func (s *Scripts) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scripts)
}

// PlayerJoined 通知所有脚本有玩家加入
func (s *Scripts) PlayerJoined(id int64) {
	s.each("onPlayerJoin", func(sc Script) { sc.OnPlayerJoin(id) })
}

// PlayerLeft 通知所有脚本有玩家离开
func (s *Scripts) PlayerLeft(id int64) {
	s.each("onPlayerLeave", func(sc Script) { sc.OnPlayerLeave(id) })
}

// Update 以帧间隔调用每个脚本的 OnUpdate
func (s *Scripts) Update(frameDelta, _ float64) error {
	s.each("onUpdate", func(sc Script) { sc.OnUpdate(frameDelta) })
	return nil
}

func (s *Scripts) each(hook string, fn func(Script)) {
	s.mu.Lock()
	list := append([]Script(nil), s.scripts...)
	s.mu.Unlock()
	for _, sc := range list {
		s.run(hook, sc, fn)
	}
}

// run 执行单个回调并吞掉 panic
func (s *Scripts) run(hook string, sc Script, fn func(Script)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("script panicked", "hook", hook, "script", sc, "panic", r)
		}
	}()
	fn(sc)
}
