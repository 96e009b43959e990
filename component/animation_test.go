package component

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestAnimation_Select(t *testing.T) {
	full := FullClipSet()
	noSprint := map[Action]bool{ActionIdle: true, ActionWalk: true, ActionJump: true}
	noJump := map[Action]bool{ActionIdle: true, ActionWalk: true, ActionSprint: true}

	tests := []struct {
		name                        string
		clips                       map[Action]bool
		moving, sprinting, grounded bool
		want                        Action
	}{
		{"idle", full, false, false, true, ActionIdle},
		{"walk", full, true, false, true, ActionWalk},
		{"sprint", full, true, true, true, ActionSprint},
		{"sprint flag while still", full, false, true, true, ActionIdle},
		{"airborne", full, true, true, false, ActionJump},
		{"sprint falls back to walk", noSprint, true, true, true, ActionWalk},
		{"airborne without jump clip", noJump, true, false, false, ActionWalk},
		{"no clips", nil, true, true, false, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &AnimationData{Available: tt.clips}
			assert.Equal(t, tt.want, a.Select(tt.moving, tt.sprinting, tt.grounded))
		})
	}
}

func TestMoveDirection(t *testing.T) {
	tests := []struct {
		move mgl64.Vec2
		want Direction
	}{
		{mgl64.Vec2{0, 1}, Forward},
		{mgl64.Vec2{1, 1}, Forward},
		{mgl64.Vec2{-1, 0.2}, Forward},
		{mgl64.Vec2{0, -1}, Backward},
		{mgl64.Vec2{1, -1}, Backward},
		{mgl64.Vec2{1, 0}, Right},
		{mgl64.Vec2{-1, -0.5}, Left},
		{mgl64.Vec2{}, Forward},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MoveDirection(tt.move), "move %v", tt.move)
	}
}

func TestAnimation_SelectMove(t *testing.T) {
	full := FullClipSet()
	forwardOnly := map[Action]bool{ActionIdle: true, ActionWalk: true, ActionSprint: true, ActionJump: true}
	walkOnlyBack := map[Action]bool{ActionIdle: true, ActionWalk: true, ActionSprint: true, ActionBackwardsWalk: true}

	tests := []struct {
		name      string
		clips     map[Action]bool
		move      mgl64.Vec2
		sprinting bool
		grounded  bool
		want      Action
	}{
		{"forward sprint", full, mgl64.Vec2{0, 1}, true, true, ActionSprint},
		{"backpedal", full, mgl64.Vec2{0, -1}, false, true, ActionBackwardsWalk},
		{"backpedal sprint", full, mgl64.Vec2{0, -1}, true, true, ActionBackwardsSprint},
		{"strafe left", full, mgl64.Vec2{-1, 0}, false, true, ActionLeftWalk},
		{"strafe right sprint", full, mgl64.Vec2{1, 0}, true, true, ActionRightSprint},
		{"still", full, mgl64.Vec2{}, true, true, ActionIdle},
		{"airborne wins", full, mgl64.Vec2{0, -1}, false, false, ActionJump},
		{"no directional clips", forwardOnly, mgl64.Vec2{1, 0}, true, true, ActionSprint},
		{"directional sprint degrades to walk", walkOnlyBack, mgl64.Vec2{0, -1}, true, true, ActionBackwardsWalk},
		{"missing strafe falls back", walkOnlyBack, mgl64.Vec2{-1, 0}, false, true, ActionWalk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &AnimationData{Available: tt.clips}
			assert.Equal(t, tt.want, a.SelectMove(tt.move, tt.sprinting, tt.grounded))
		})
	}
}

func TestAnimation_KeepsFacing(t *testing.T) {
	full := &AnimationData{Available: FullClipSet()}
	assert.True(t, full.KeepsFacing(mgl64.Vec2{0, -1}, false))
	assert.True(t, full.KeepsFacing(mgl64.Vec2{1, 0}, true))
	assert.False(t, full.KeepsFacing(mgl64.Vec2{0, 1}, false))
	assert.False(t, full.KeepsFacing(mgl64.Vec2{}, false))

	plain := &AnimationData{Available: map[Action]bool{ActionIdle: true, ActionWalk: true}}
	assert.False(t, plain.KeepsFacing(mgl64.Vec2{0, -1}, false))
}

func TestAnimation_TransitionFades(t *testing.T) {
	a := &AnimationData{Available: FullClipSet(), Current: ActionIdle}

	assert.False(t, a.Transition(ActionIdle))
	assert.False(t, a.Transition(ActionNone))

	assert.True(t, a.Transition(ActionWalk))
	assert.Equal(t, ActionIdle, a.Previous)
	assert.Equal(t, ActionWalk, a.Current)
	assert.Equal(t, 0.0, a.Weight())

	a.Advance(0.1)
	assert.InDelta(t, 0.5, a.Weight(), 1e-9)
	a.Advance(0.5)
	assert.Equal(t, 1.0, a.Weight())

	assert.True(t, a.Transition(ActionJump))
	assert.Equal(t, 0.1, a.Fade)
}
