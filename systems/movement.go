package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"roomsync/component"
	"roomsync/ecs"
)

const (
	SprintMultiplier = 1.6  // 冲刺速度倍率
	JumpSpeed        = 10.0 // 起跳初速度（m/s）
)

var up = mgl64.Vec3{0, 1, 0}

// Movement 在固定步长内将本地玩家的输入转为刚体速度，并让角色朝向行进方向
// 播放后退或平移片段时角色保持面向前方（-Z）
type Movement struct {
	store *ecs.Store
}

// NewMovement 创建移动系统
func NewMovement(store *ecs.Store) *Movement {
	return &Movement{store: store}
}

func (m *Movement) String() string { return "movement" }

// FixedUpdate 写入水平速度，落地时处理跳跃（跳跃输入总会被消耗）
func (m *Movement) FixedUpdate(float64) error {
	e, ok := m.store.Local()
	if !ok || !e.HasComponent(component.Input) || !e.HasComponent(component.PhysicsBody) {
		return nil
	}
	b := component.PhysicsBody.Get(e).Body
	if b == nil {
		return nil
	}
	in := component.Input.Get(e)
	speed := component.Player.Get(e).Speed
	if in.Sprint {
		speed *= SprintMultiplier
	}
	dir := heading(in.Move)
	b.Velocity[0] = dir[0] * speed
	b.Velocity[2] = dir[2] * speed

	if in.Jump {
		if b.Grounded {
			b.Velocity[1] = JumpSpeed
			b.Grounded = false
		}
		in.Jump = false
	}
	return nil
}

// Update 更新本地玩家朝向
func (m *Movement) Update(float64, float64) error {
	e, ok := m.store.Local()
	if !ok || !e.HasComponent(component.Input) {
		return nil
	}
	in := component.Input.Get(e)
	if !in.Moving() {
		return nil
	}
	if e.HasComponent(component.Animation) && component.Animation.Get(e).KeepsFacing(in.Move, in.Sprint) {
		*component.Rotation.Get(e) = mgl64.QuatRotate(math.Pi, up)
		return nil
	}
	dir := heading(in.Move)
	*component.Rotation.Get(e) = mgl64.QuatRotate(math.Atan2(dir[0], dir[2]), up)
	return nil
}

// heading 将平移/前进输入映射到地面，前进为 -Z，斜向归一化
func heading(move mgl64.Vec2) mgl64.Vec3 {
	d := mgl64.Vec3{move[0], 0, -move[1]}
	if l := d.Len(); l > 1 {
		d = d.Mul(1 / l)
	}
	return d
}
