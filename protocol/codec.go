package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// 解码错误
var (
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrMalformed   = errors.New("protocol: malformed message")
)

// Frame 一条 WebSocket 消息，Kind 为 websocket.TextMessage 或 websocket.BinaryMessage
type Frame struct {
	Kind int
	Data []byte
}

// binaryMove move 与 playerMoved 共用的 msgpack 布局
type binaryMove struct {
	Type        string `msgpack:"type"`
	ID          int64  `msgpack:"id,omitempty"`
	Position    Vec3   `msgpack:"position"`
	Rotation    Quat   `msgpack:"rotation"`
	IsMoving    bool   `msgpack:"isMoving"`
	IsSprinting bool   `msgpack:"isSprinting"`
	IsGrounded  bool   `msgpack:"isGrounded"`
	Timestamp   int64  `msgpack:"timestamp"`
}

// Encode 序列化 m：Move 与 PlayerMoved 编为 msgpack 二进制帧，其余为带 "type" 字段的 JSON 文本帧
func Encode(m Message) (Frame, error) {
	switch v := m.(type) {
	case Move:
		return encodeBinary(binaryMove{
			Type: TypeMove, Position: v.Position, Rotation: v.Rotation,
			IsMoving: v.IsMoving, IsSprinting: v.IsSprinting, IsGrounded: v.IsGrounded,
			Timestamp: v.Timestamp,
		})
	case PlayerMoved:
		return encodeBinary(binaryMove{
			Type: TypePlayerMoved, ID: v.ID, Position: v.Position, Rotation: v.Rotation,
			IsMoving: v.IsMoving, IsSprinting: v.IsSprinting, IsGrounded: v.IsGrounded,
			Timestamp: v.Timestamp,
		})
	}
	return EncodeText(m)
}

// EncodeText 无论类型一律编码为 JSON 文本帧
func EncodeText(m Message) (Frame, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(m.MessageType()) + 12)
	buf.WriteString(`{"type":`)
	typ, _ := json.Marshal(m.MessageType())
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return Frame{Kind: websocket.TextMessage, Data: buf.Bytes()}, nil
}

func encodeBinary(b binaryMove) (Frame, error) {
	data, err := msgpack.Marshal(&b)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", b.Type, err)
	}
	return Frame{Kind: websocket.BinaryMessage, Data: data}, nil
}

// Decode 将帧解析为具体的消息值
func Decode(f Frame) (Message, error) {
	switch f.Kind {
	case websocket.BinaryMessage:
		return decodeBinary(f.Data)
	case websocket.TextMessage:
		return decodeText(f.Data)
	}
	return nil, fmt.Errorf("%w: frame kind %d", ErrMalformed, f.Kind)
}

func decodeBinary(data []byte) (Message, error) {
	var b binaryMove
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !finite(b.Position, b.Rotation) {
		return nil, fmt.Errorf("%w: non-finite transform", ErrMalformed)
	}
	switch b.Type {
	case TypeMove:
		return Move{
			Position: b.Position, Rotation: b.Rotation,
			IsMoving: b.IsMoving, IsSprinting: b.IsSprinting, IsGrounded: b.IsGrounded,
			Timestamp: b.Timestamp,
		}, nil
	case TypePlayerMoved:
		return PlayerMoved{
			ID: b.ID, Position: b.Position, Rotation: b.Rotation,
			IsMoving: b.IsMoving, IsSprinting: b.IsSprinting, IsGrounded: b.IsGrounded,
			Timestamp: b.Timestamp,
		}, nil
	}
	return nil, fmt.Errorf("%w: binary %q", ErrUnknownType, b.Type)
}

func decodeText(data []byte) (Message, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		msg Message
		err error
	)
	switch env.Type {
	case TypeConnected:
		msg, err = unmarshal[Connected](data)
	case TypeJoinGame:
		msg, err = unmarshal[JoinGame](data)
	case TypeJoinedRoom:
		msg, err = unmarshal[JoinedRoom](data)
	case TypePlayerJoined:
		msg, err = unmarshal[PlayerJoined](data)
	case TypePlayerLeft:
		msg, err = unmarshal[PlayerLeft](data)
	case TypeMove:
		var m Move
		if m, err = unmarshal[Move](data); err == nil && !finite(m.Position, m.Rotation) {
			err = fmt.Errorf("%w: non-finite transform", ErrMalformed)
		}
		msg = m
	case TypePlayerMoved:
		msg, err = unmarshal[PlayerMoved](data)
	case TypeRoomUpdate:
		msg, err = unmarshal[RoomUpdate](data)
	case TypeHeartbeat:
		msg = Heartbeat{}
	case TypeHeartbeatAck:
		msg = HeartbeatAck{}
	case TypeChatMessage:
		msg, err = unmarshal[ChatMessage](data)
	case TypeGameEvent:
		msg, err = unmarshal[GameEvent](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func unmarshal[T Message](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrMalformed, v.MessageType(), err)
	}
	return v, nil
}

// finite 位置与旋转均为有限值
func finite(p Vec3, q Quat) bool {
	for _, f := range [...]float64{p.X, p.Y, p.Z, q[0], q[1], q[2], q[3]} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
