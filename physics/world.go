package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyID World 内的刚体编号
type BodyID uint64

// Body 直立的胶囊状刚体，运动学刚体不参与积分，由持有者移动
type Body struct {
	ID         BodyID
	Position   mgl64.Vec3
	Velocity   mgl64.Vec3
	HalfHeight float64
	Kinematic  bool
	Grounded   bool
}

// MoveTo 直接放置刚体并清空速度
func (b *Body) MoveTo(p mgl64.Vec3) {
	b.Position = p
	b.Velocity = mgl64.Vec3{}
}

// Config 物理世界参数
type Config struct {
	Gravity      float64 // m/s²，负值向下
	GroundY      float64 // 地面高度
	MaxFallSpeed float64 // 下落速度上限（m/s）
}

// DefaultConfig 默认参数：重力 -35，地面 y=0，下落上限 10
func DefaultConfig() Config {
	return Config{Gravity: -35, GroundY: 0, MaxFallSpeed: 10}
}

// World 在重力作用下推进动态刚体，并与地面做碰撞
type World struct {
	cfg    Config
	nextID BodyID
	bodies map[BodyID]*Body
	order  []BodyID
	steps  uint64
}

// NewWorld 创建空的物理世界
func NewWorld(cfg Config) *World {
	return &World{cfg: cfg, bodies: make(map[BodyID]*Body)}
}

// AddBody 在 pos 处注册刚体
func (w *World) AddBody(pos mgl64.Vec3, halfHeight float64, kinematic bool) *Body {
	w.nextID++
	b := &Body{ID: w.nextID, Position: pos, HalfHeight: halfHeight, Kinematic: kinematic}
	w.bodies[b.ID] = b
	w.order = append(w.order, b.ID)
	return b
}

// RemoveBody 移除刚体，未知编号忽略
func (w *World) RemoveBody(id BodyID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Body 按编号查找刚体
func (w *World) Body(id BodyID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Len 刚体数量
func (w *World) Len() int { return len(w.bodies) }

// Steps 迄今为止的 Step 次数
func (w *World) Steps() uint64 { return w.steps }

// Step 将所有动态刚体推进 dt 秒
func (w *World) Step(dt float64) {
	w.steps++
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kinematic {
			continue
		}
		b.Velocity[1] += w.cfg.Gravity * dt
		if w.cfg.MaxFallSpeed > 0 && b.Velocity[1] < -w.cfg.MaxFallSpeed {
			b.Velocity[1] = -w.cfg.MaxFallSpeed
		}
		b.Position = b.Position.Add(b.Velocity.Mul(dt))

		floor := w.cfg.GroundY + b.HalfHeight
		if b.Position[1] <= floor {
			b.Position[1] = floor
			if b.Velocity[1] < 0 {
				b.Velocity[1] = 0
			}
			b.Grounded = true
		} else {
			b.Grounded = false
		}
	}
}
