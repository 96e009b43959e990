package systems

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"

	"roomsync/component"
	"roomsync/ecs"
)

var animated = query.NewQuery(filter.Contains(component.Animation))

// Animation 推进所有交叉淡入，并按输入方向与落地状态选择本地玩家的片段
// 远端玩家的片段在收到 playerMoved 时选择
type Animation struct {
	store *ecs.Store
}

// NewAnimation 创建动画系统
func NewAnimation(store *ecs.Store) *Animation {
	return &Animation{store: store}
}

func (a *Animation) String() string { return "animation" }

// Update 每帧推进淡入计时并切换本地片段
func (a *Animation) Update(frameDelta, _ float64) error {
	a.store.Each(animated, func(e *donburi.Entry) {
		anim := component.Animation.Get(e)
		anim.Advance(frameDelta)
		if !e.HasComponent(component.Input) || !e.HasComponent(component.Player) {
			return
		}
		pl := component.Player.Get(e)
		if !pl.IsLocal {
			return
		}
		in := component.Input.Get(e)
		anim.Transition(anim.SelectMove(in.Move, in.Sprint, pl.IsGrounded))
	})
	return nil
}
