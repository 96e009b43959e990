package ecs

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"

	"roomsync/component"
	"roomsync/interp"
	"roomsync/physics"
)

const (
	PlayerHalfHeight = 0.9 // 角色胶囊体半高
	PlayerSpeed      = 5   // 步行速度（m/s）
)

// SpawnPoint 角色在首次更新前的出生点
var SpawnPoint = mgl64.Vec3{0, 1.5, 0}

// SpawnLocalPlayer 创建本地模拟的角色（动态刚体），已存在时返回 ErrLocalExists
func SpawnLocalPlayer(s *Store, w *physics.World, pos mgl64.Vec3) (Entity, error) {
	if _, ok := s.Local(); ok {
		return 0, ErrLocalExists
	}
	e := s.Spawn(
		component.Position, component.Velocity, component.Rotation,
		component.Player, component.PhysicsBody, component.Input, component.Animation,
	)
	*component.Position.Get(e) = pos
	*component.Rotation.Get(e) = mgl64.QuatIdent()
	*component.Player.Get(e) = component.PlayerData{IsLocal: true, Speed: PlayerSpeed}
	*component.PhysicsBody.Get(e) = component.PhysicsBodyData{Body: w.AddBody(pos, PlayerHalfHeight, false)}
	*component.Animation.Get(e) = component.AnimationData{Available: component.FullClipSet(), Current: component.ActionIdle}
	return e.Entity(), nil
}

// SpawnRemotePlayer 创建远端玩家角色
// 其运动学刚体只跟随插值结果移动，不参与模拟
func SpawnRemotePlayer(s *Store, w *physics.World, remoteID int64, pos mgl64.Vec3, capacity int) Entity {
	e := s.Spawn(
		component.Position, component.Rotation, component.Player,
		component.PhysicsBody, component.Interpolation, component.Network, component.Animation,
	)
	*component.Position.Get(e) = pos
	*component.Rotation.Get(e) = mgl64.QuatIdent()
	*component.Player.Get(e) = component.PlayerData{Speed: PlayerSpeed, IsGrounded: true}
	*component.PhysicsBody.Get(e) = component.PhysicsBodyData{Body: w.AddBody(pos, PlayerHalfHeight, true)}
	*component.Interpolation.Get(e) = interp.NewBuffers(capacity)
	*component.Network.Get(e) = component.NetworkData{RemoteID: remoteID}
	*component.Animation.Get(e) = component.AnimationData{Available: component.FullClipSet(), Current: component.ActionIdle}
	return e.Entity()
}

// DestroyPlayer 释放实体及其持有的刚体
func DestroyPlayer(s *Store, w *physics.World, e Entity) {
	entry, err := s.Entry(e)
	if err != nil {
		return
	}
	releaseBody(entry, w)
	s.Destroy(e)
}

// releaseBody 从物理世界移除实体的刚体
func releaseBody(entry *donburi.Entry, w *physics.World) {
	if !entry.HasComponent(component.PhysicsBody) {
		return
	}
	if b := component.PhysicsBody.Get(entry).Body; b != nil {
		w.RemoveBody(b.ID)
	}
}
