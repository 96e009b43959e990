package protocol

import "encoding/json"

// 消息类型，放在 "type" 字段中
const (
	TypeConnected    = "connected"
	TypeJoinGame     = "joinGame"
	TypeJoinedRoom   = "joinedRoom"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypeMove         = "move"
	TypePlayerMoved  = "playerMoved"
	TypeRoomUpdate   = "roomUpdate"
	TypeHeartbeat    = "heartbeat"
	TypeHeartbeatAck = "heartbeatAck"
	TypeChatMessage  = "chatMessage"
	TypeGameEvent    = "gameEvent"
)

// MaxChatLength 聊天文本上限（按字符计）
const MaxChatLength = 200

// Message 可在线路上传输的消息
type Message interface {
	MessageType() string
}

// Vec3 三维坐标
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Quat 旋转四元数，顺序为 [x, y, z, w]
type Quat [4]float64

// IdentityQuat 无旋转四元数
var IdentityQuat = Quat{0, 0, 0, 1}

// Identity 玩家身份（名字与头像）
type Identity struct {
	Name     string `json:"name"`
	AvatarID string `json:"avatarId"`
}

// PlayerInfo 名册条目
type PlayerInfo struct {
	ID       int64    `json:"id"`
	Position Vec3     `json:"position"`
	Identity Identity `json:"identity"`
}

// Connected 连接建立后服务端下发的玩家编号
type Connected struct {
	ID int64 `json:"id"`
}

// JoinGame 客户端请求入房，RoomType 为空时使用默认房间类型
type JoinGame struct {
	Identity *Identity `json:"identity,omitempty"`
	RoomType string    `json:"roomType"`
}

// JoinedRoom 入房应答，Players 为已在房间内的其他玩家（不含自己）
type JoinedRoom struct {
	RoomID     string       `json:"roomId"`
	RoomType   string       `json:"roomType"`
	PlayerID   int64        `json:"playerId"`
	Players    []PlayerInfo `json:"players"`
	MaxPlayers int          `json:"maxPlayers"`
}

// PlayerJoined 通知其他成员有新玩家加入
type PlayerJoined struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeft 通知成员有玩家离开
type PlayerLeft struct {
	ID int64 `json:"id"`
}

// Move 客户端每次上报的本地状态
type Move struct {
	Position    Vec3  `json:"position"`
	Rotation    Quat  `json:"rotation"`
	IsMoving    bool  `json:"isMoving"`
	IsSprinting bool  `json:"isSprinting"`
	IsGrounded  bool  `json:"isGrounded"`
	Timestamp   int64 `json:"timestamp"`
}

// PlayerMoved 服务端转发的 Move，Timestamp 为服务端收到的时间
type PlayerMoved struct {
	ID          int64 `json:"id"`
	Position    Vec3  `json:"position"`
	Rotation    Quat  `json:"rotation"`
	IsMoving    bool  `json:"isMoving"`
	IsSprinting bool  `json:"isSprinting"`
	IsGrounded  bool  `json:"isGrounded"`
	Timestamp   int64 `json:"timestamp"`
}

// RoomUpdate 房间人数变化（房间编号隐含）
type RoomUpdate struct {
	PlayerCount int `json:"playerCount"`
	MaxPlayers  int `json:"maxPlayers"`
}

// Heartbeat 客户端心跳
type Heartbeat struct{}

// HeartbeatAck 心跳应答
type HeartbeatAck struct{}

// ChatMessage 双向聊天消息，客户端只发 Text，服务端补全 Author 与 Timestamp
type ChatMessage struct {
	Author    string `json:"author,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// GameEvent 供房间脚本使用的不透明载荷
type GameEvent struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data,omitempty"`
	PlayerID  int64           `json:"playerId,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func (Connected) MessageType() string    { return TypeConnected }
func (JoinGame) MessageType() string     { return TypeJoinGame }
func (JoinedRoom) MessageType() string   { return TypeJoinedRoom }
func (PlayerJoined) MessageType() string { return TypePlayerJoined }
func (PlayerLeft) MessageType() string   { return TypePlayerLeft }
func (Move) MessageType() string         { return TypeMove }
func (PlayerMoved) MessageType() string  { return TypePlayerMoved }
func (RoomUpdate) MessageType() string   { return TypeRoomUpdate }
func (Heartbeat) MessageType() string    { return TypeHeartbeat }
func (HeartbeatAck) MessageType() string { return TypeHeartbeatAck }
func (ChatMessage) MessageType() string  { return TypeChatMessage }
func (GameEvent) MessageType() string    { return TypeGameEvent }

// Relay 构造服务端为该 Move 分发的 PlayerMoved
func (m Move) Relay(id int64, receivedAt int64) PlayerMoved {
	return PlayerMoved{
		ID:          id,
		Position:    m.Position,
		Rotation:    m.Rotation,
		IsMoving:    m.IsMoving,
		IsSprinting: m.IsSprinting,
		IsGrounded:  m.IsGrounded,
		Timestamp:   receivedAt,
	}
}
