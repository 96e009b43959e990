package systems

import (
	"roomsync/component"
	"roomsync/ecs"
)

// InputSource 操控本地玩家的设备或代理
type InputSource interface {
	Poll() component.InputData
}

// Input 将输入源的状态复制到本地玩家的 Input 组件
// 跳跃按下后保持，直到 Movement 在固定步中消耗
type Input struct {
	store  *ecs.Store
	source InputSource
}

// NewInput 创建输入系统
func NewInput(store *ecs.Store, source InputSource) *Input {
	return &Input{store: store, source: source}
}

func (s *Input) String() string { return "input" }

// Update 每帧轮询一次输入源
func (s *Input) Update(float64, float64) error {
	e, ok := s.store.Local()
	if !ok || !e.HasComponent(component.Input) {
		return nil
	}
	polled := s.source.Poll()
	in := component.Input.Get(e)
	jump := in.Jump || polled.Jump
	*in = polled
	in.Jump = jump
	return nil
}
