// Package systems 客户端模拟的调度系统
// 在复制客户端之后依次注册 Input、Movement、Physics、Interpolation、Animation、Scripts，
// 后面的系统读取前面的系统在同一帧写入的数据
package systems

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"

	"roomsync/component"
	"roomsync/ecs"
	"roomsync/interp"
	"roomsync/physics"
)

var bodies = query.NewQuery(filter.Contains(component.Position, component.PhysicsBody))

// Physics 推进刚体世界并把刚体位置写回 Position
// 本地玩家按 alpha 在步前与步后位置之间混合，远端角色交给 Interpolation
type Physics struct {
	store *ecs.Store
	world *physics.World

	local   ecs.Entity
	prev    mgl64.Vec3
	hasPrev bool
}

// NewPhysics 创建物理系统
func NewPhysics(store *ecs.Store, world *physics.World) *Physics {
	return &Physics{store: store, world: world}
}

func (p *Physics) String() string { return "physics" }

// FixedUpdate 记录本地玩家步前位置，然后推进世界一步
func (p *Physics) FixedUpdate(dt float64) error {
	p.hasPrev = false
	if e, ok := p.store.Local(); ok && e.HasComponent(component.PhysicsBody) {
		if b := component.PhysicsBody.Get(e).Body; b != nil {
			p.local, p.prev, p.hasPrev = e.Entity(), b.Position, true
		}
	}
	p.world.Step(dt)
	return nil
}

// Update 同步位置与落地状态，alpha 裁剪到 [0, 1]
func (p *Physics) Update(_, alpha float64) error {
	if p.hasPrev && !p.store.Alive(p.local) {
		p.hasPrev = false
	}
	p.store.Each(bodies, func(e *donburi.Entry) {
		if e.HasComponent(component.Interpolation) {
			return
		}
		b := component.PhysicsBody.Get(e).Body
		if b == nil {
			return
		}
		pos := b.Position
		if e.HasComponent(component.Player) {
			pl := component.Player.Get(e)
			if !pl.IsLocal {
				return
			}
			pl.IsGrounded = b.Grounded
			if p.hasPrev && e.Entity() == p.local {
				pos = interp.Lerp(p.prev, b.Position, mgl64.Clamp(alpha, 0, 1))
			}
		}
		*component.Position.Get(e) = pos
		if e.HasComponent(component.Velocity) {
			*component.Velocity.Get(e) = b.Velocity
		}
	})
	return nil
}
