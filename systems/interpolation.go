package systems

import (
	"time"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"

	"roomsync/component"
	"roomsync/ecs"
	"roomsync/interp"
)

var remotes = query.NewQuery(filter.Contains(
	component.Interpolation, component.Position, component.Rotation,
))

// Interpolation 根据采样缓冲渲染远端角色，并同步移动其运动学刚体
type Interpolation struct {
	store  *ecs.Store
	engine *interp.Engine
	now    func() time.Time
}

// NewInterpolation 创建插值系统，使用墙上时钟
func NewInterpolation(store *ecs.Store, engine *interp.Engine) *Interpolation {
	return &Interpolation{store: store, engine: engine, now: time.Now}
}

// WithClock 替换时钟（测试用）
func (s *Interpolation) WithClock(now func() time.Time) *Interpolation {
	s.now = now
	return s
}

func (s *Interpolation) String() string { return "interpolation" }

// Update 对每个远端实体执行一次插值
func (s *Interpolation) Update(float64, float64) error {
	now := s.now().UnixMilli()
	s.store.Each(remotes, func(e *donburi.Entry) {
		pos := component.Position.Get(e)
		rot := component.Rotation.Get(e)
		res := s.engine.Step(component.Interpolation.Get(e), now, *pos, *rot)
		*pos, *rot = res.Position, res.Rotation

		if e.HasComponent(component.PhysicsBody) {
			if b := component.PhysicsBody.Get(e).Body; b != nil {
				b.MoveTo(res.Position)
			}
		}
	})
	return nil
}
