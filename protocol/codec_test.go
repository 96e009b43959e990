package protocol

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEncode_MoveIsBinary(t *testing.T) {
	m := Move{
		Position:   Vec3{X: 1, Y: 1.5, Z: -2},
		Rotation:   Quat{0, 0.7071, 0, 0.7071},
		IsMoving:   true,
		IsGrounded: true,
		Timestamp:  1700000000000,
	}
	f, err := Encode(m)
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, f.Kind)

	got, err := Decode(f)
	require.NoError(t, err)
	if diff := cmp.Diff(Message(m), got); diff != "" {
		t.Errorf("move mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_PlayerMovedKeepsID(t *testing.T) {
	pm := Move{Position: Vec3{X: 3}, Rotation: IdentityQuat, IsSprinting: true}.Relay(7, 42)
	f, err := Encode(pm)
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, f.Kind)

	got, err := Decode(f)
	require.NoError(t, err)
	if diff := cmp.Diff(Message(pm), got); diff != "" {
		t.Errorf("playerMoved mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeText_CarriesType(t *testing.T) {
	f, err := Encode(RoomUpdate{PlayerCount: 2, MaxPlayers: 4})
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, f.Kind)
	assert.JSONEq(t, `{"type":"roomUpdate","playerCount":2,"maxPlayers":4}`, string(f.Data))

	f, err = Encode(Heartbeat{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"heartbeat"}`, string(f.Data))
}

func TestDecode_TextMessages(t *testing.T) {
	cases := []Message{
		Connected{ID: 3},
		JoinGame{Identity: &Identity{Name: "ann", AvatarID: "fox"}, RoomType: "arena"},
		JoinedRoom{
			RoomID: "room-1", RoomType: "arena", PlayerID: 2, MaxPlayers: 4,
			Players: []PlayerInfo{{ID: 1, Position: Vec3{Y: 1.5}, Identity: Identity{Name: "bob"}}},
		},
		PlayerJoined{Player: PlayerInfo{ID: 9}},
		PlayerLeft{ID: 9},
		HeartbeatAck{},
		ChatMessage{Author: "ann", Text: "hi", Timestamp: 5},
		GameEvent{EventType: "score", Data: json.RawMessage(`{"points":3}`), PlayerID: 1, Timestamp: 5},
	}
	for _, want := range cases {
		t.Run(want.MessageType(), func(t *testing.T) {
			f, err := Encode(want)
			require.NoError(t, err)
			got, err := Decode(f)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_TextMove(t *testing.T) {
	raw := `{"type":"move","position":{"x":1,"y":2,"z":3},"rotation":[0,0,0,1],"isMoving":true,"timestamp":10}`
	got, err := Decode(Frame{Kind: websocket.TextMessage, Data: []byte(raw)})
	require.NoError(t, err)
	m, ok := got.(Move)
	require.True(t, ok)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, m.Position)
	assert.Equal(t, IdentityQuat, m.Rotation)
	assert.True(t, m.IsMoving)
}

func TestDecode_Rejects(t *testing.T) {
	nan, err := msgpack.Marshal(&binaryMove{Type: TypeMove, Position: Vec3{X: math.NaN()}})
	require.NoError(t, err)

	cases := map[string]struct {
		frame Frame
		want  error
	}{
		"garbage json":     {Frame{Kind: websocket.TextMessage, Data: []byte("{not json")}, ErrMalformed},
		"unknown type":     {Frame{Kind: websocket.TextMessage, Data: []byte(`{"type":"teleport"}`)}, ErrUnknownType},
		"wrong field type": {Frame{Kind: websocket.TextMessage, Data: []byte(`{"type":"playerLeft","id":"x"}`)}, ErrMalformed},
		"garbage binary":   {Frame{Kind: websocket.BinaryMessage, Data: []byte{0xc1}}, ErrMalformed},
		"nan position":     {Frame{Kind: websocket.BinaryMessage, Data: nan}, ErrMalformed},
		"ping frame":       {Frame{Kind: websocket.PingMessage}, ErrMalformed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.frame)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
