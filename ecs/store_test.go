package ecs

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"

	"roomsync/component"
	"roomsync/physics"
)

func TestStore_SpawnAndDestroy(t *testing.T) {
	s := NewStore()
	e := s.Spawn(component.Position, component.Velocity)
	*component.Position.Get(e) = mgl64.Vec3{1, 2, 3}

	id := e.Entity()
	require.True(t, s.Alive(id))
	assert.Equal(t, 1, s.Len())

	got, err := s.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, *component.Position.Get(got))
	assert.True(t, got.HasComponent(component.Velocity))
	assert.False(t, got.HasComponent(component.Player))

	s.Destroy(id)
	s.Destroy(id)
	assert.False(t, s.Alive(id))
	_, err = s.Entry(id)
	assert.ErrorIs(t, err, ErrNoEntity)
	assert.Zero(t, s.Len())
}

func TestStore_EachFiltersByComponents(t *testing.T) {
	s := NewStore()
	s.Spawn(component.Position)
	s.Spawn(component.Position, component.Velocity)
	s.Spawn(component.Velocity)

	n := 0
	s.Each(query.NewQuery(filter.Contains(component.Position, component.Velocity)), func(*donburi.Entry) { n++ })
	assert.Equal(t, 1, n)
}

func TestSpawnLocalPlayer_Unique(t *testing.T) {
	s, w := NewStore(), physics.NewWorld(physics.DefaultConfig())

	e, err := SpawnLocalPlayer(s, w, SpawnPoint)
	require.NoError(t, err)
	_, err = SpawnLocalPlayer(s, w, SpawnPoint)
	assert.ErrorIs(t, err, ErrLocalExists)

	SpawnRemotePlayer(s, w, 7, SpawnPoint, 20)
	local, ok := s.Local()
	require.True(t, ok)
	assert.Equal(t, e, local.Entity())
	assert.Equal(t, 2, w.Len())
}

func TestSpawnRemotePlayer_KinematicWithBuffers(t *testing.T) {
	s, w := NewStore(), physics.NewWorld(physics.DefaultConfig())
	e := SpawnRemotePlayer(s, w, 7, mgl64.Vec3{3, 1.5, 0}, 20)

	entry, err := s.Entry(e)
	require.NoError(t, err)
	body := component.PhysicsBody.Get(entry).Body
	require.NotNil(t, body)
	assert.True(t, body.Kinematic)
	assert.False(t, component.Player.Get(entry).IsLocal)
	assert.Equal(t, int64(7), component.Network.Get(entry).RemoteID)
	assert.Equal(t, 20, component.Interpolation.Get(entry).Positions.Cap())
	assert.Zero(t, component.Interpolation.Get(entry).Positions.Len())

	_, ok := s.Local()
	assert.False(t, ok)

	DestroyPlayer(s, w, e)
	assert.False(t, s.Alive(e))
	assert.Zero(t, w.Len())
}
