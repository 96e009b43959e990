// Package component 声明挂在实体上的类型化组件
package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"

	"roomsync/interp"
	"roomsync/physics"
)

// PlayerData 标记角色，一个会话内恰有一个本地玩家
type PlayerData struct {
	IsLocal    bool
	IsGrounded bool
	Speed      float64
}

// PhysicsBodyData 关联实体与刚体，远端玩家持有跟随插值结果的运动学刚体
type PhysicsBodyData struct {
	Body *physics.Body
}

// NetworkData 关联实体与远端玩家编号
type NetworkData struct {
	RemoteID   int64
	LastUpdate int64 // 最近一次被接受的更新时间（毫秒）
}

// InputData 输入源写入的本地意图
type InputData struct {
	Move   mgl64.Vec2 // x 平移，y 前进，取值 [-1, 1]
	Sprint bool
	Jump   bool
}

// Moving 是否有移动输入
func (in InputData) Moving() bool { return in.Move[0] != 0 || in.Move[1] != 0 }

// 组件类型
var (
	Position      = donburi.NewComponentType[mgl64.Vec3]()
	Velocity      = donburi.NewComponentType[mgl64.Vec3]()
	Rotation      = donburi.NewComponentType[mgl64.Quat]()
	PhysicsBody   = donburi.NewComponentType[PhysicsBodyData]()
	Player        = donburi.NewComponentType[PlayerData]()
	Interpolation = donburi.NewComponentType[interp.Buffers]()
	Network       = donburi.NewComponentType[NetworkData]()
	Animation     = donburi.NewComponentType[AnimationData]()
	Input         = donburi.NewComponentType[InputData]()
)
