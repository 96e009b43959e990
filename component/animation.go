package component

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Action 动画片段名
type Action string

const (
	ActionNone   Action = ""
	ActionIdle   Action = "idle"
	ActionWalk   Action = "walking"
	ActionSprint Action = "sprint"
	ActionJump   Action = "jump"

	// 方向片段：后退与左右平移，角色保持朝向不转身
	ActionBackwardsWalk   Action = "backwards_walk"
	ActionBackwardsSprint Action = "backwards_sprint"
	ActionLeftWalk        Action = "left_walk"
	ActionLeftSprint      Action = "left_sprint"
	ActionRightWalk       Action = "right_walk"
	ActionRightSprint     Action = "right_sprint"
)

// Direction 输入相对于前进方向的移动方向
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

// MoveDirection 根据移动输入判断方向（x 为平移，y 为前进）
// 带前进分量的输入一律算 Forward（角色转向行进方向）；否则横向分量更大时算左右，其余算后退
func MoveDirection(move mgl64.Vec2) Direction {
	x, y := move[0], move[1]
	switch {
	case y > 0:
		return Forward
	case math.Abs(x) > math.Abs(y) && x > 0:
		return Right
	case math.Abs(x) > math.Abs(y) && x < 0:
		return Left
	case y < 0:
		return Backward
	}
	return Forward
}

// AnimationData 两个片段之间的交叉淡入状态
// 渲染端读取 Current/Previous 与 Weight，片段播放本身不在这里
type AnimationData struct {
	Available map[Action]bool
	Current   Action
	Previous  Action
	Fade      float64 // 本次交叉淡入时长（秒）
	Elapsed   float64
}

// Has 角色是否带有该片段
func (a *AnimationData) Has(act Action) bool {
	return a.Available[act]
}

// Weight Current 的混合权重，范围 [0, 1]
func (a *AnimationData) Weight() float64 {
	if a.Fade <= 0 || a.Elapsed >= a.Fade {
		return 1
	}
	return a.Elapsed / a.Fade
}

// FullClipSet 默认角色自带的全部片段
func FullClipSet() map[Action]bool {
	return map[Action]bool{
		ActionIdle: true, ActionWalk: true, ActionSprint: true, ActionJump: true,
		ActionBackwardsWalk: true, ActionBackwardsSprint: true,
		ActionLeftWalk: true, ActionLeftSprint: true,
		ActionRightWalk: true, ActionRightSprint: true,
	}
}

const (
	jumpFade = 0.1
	baseFade = 0.2
)

var directional = map[Direction][2]Action{
	Backward: {ActionBackwardsWalk, ActionBackwardsSprint},
	Left:     {ActionLeftWalk, ActionLeftSprint},
	Right:    {ActionRightWalk, ActionRightSprint},
}

// Select 按移动状态选择片段
// 腾空且有 jump 片段时优先 jump；缺少片段时按 sprint → walk → idle 降级
func (a *AnimationData) Select(moving, sprinting, grounded bool) Action {
	if !grounded && a.Has(ActionJump) {
		return ActionJump
	}
	if moving && sprinting && a.Has(ActionSprint) {
		return ActionSprint
	}
	if moving && a.Has(ActionWalk) {
		return ActionWalk
	}
	if a.Has(ActionIdle) {
		return ActionIdle
	}
	return ActionNone
}

// SelectMove 同 Select，但会按输入方向选择后退或平移片段
// 该方向没有片段时退回 Select 的前进片段
func (a *AnimationData) SelectMove(move mgl64.Vec2, sprinting, grounded bool) Action {
	moving := move[0] != 0 || move[1] != 0
	if !grounded && a.Has(ActionJump) {
		return ActionJump
	}
	if moving {
		if act := a.directionalClip(MoveDirection(move), sprinting); act != ActionNone {
			return act
		}
	}
	return a.Select(moving, sprinting, grounded)
}

// KeepsFacing 该输入是否播放方向片段（此时角色不转向行进方向）
func (a *AnimationData) KeepsFacing(move mgl64.Vec2, sprinting bool) bool {
	if move[0] == 0 && move[1] == 0 {
		return false
	}
	return a.directionalClip(MoveDirection(move), sprinting) != ActionNone
}

func (a *AnimationData) directionalClip(d Direction, sprinting bool) Action {
	clips, ok := directional[d]
	if !ok {
		return ActionNone
	}
	if sprinting && a.Has(clips[1]) {
		return clips[1]
	}
	if a.Has(clips[0]) {
		return clips[0]
	}
	return ActionNone
}

// Transition 开始向 act 交叉淡入
// act 已在播放或不是有效片段时返回 false
func (a *AnimationData) Transition(act Action) bool {
	if act == ActionNone || act == a.Current {
		return false
	}
	a.Previous = a.Current
	a.Current = act
	a.Elapsed = 0
	a.Fade = baseFade
	if act == ActionJump {
		a.Fade = jumpFade
	}
	return true
}

// Advance 推进交叉淡入计时
func (a *AnimationData) Advance(dt float64) {
	if dt > 0 {
		a.Elapsed += dt
	}
}
