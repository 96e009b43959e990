package interp

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode 本帧变换的产生方式
type Mode int

const (
	Held         Mode = iota // 保持当前值
	Interpolated             // 两采样间插值
	Extrapolated             // 向最新采样逼近
)

// String 返回模式名，用于日志
func (m Mode) String() string {
	switch m {
	case Interpolated:
		return "interpolated"
	case Extrapolated:
		return "extrapolated"
	}
	return "held"
}

// Config 插值参数
type Config struct {
	RenderDelay time.Duration // 回放相对最新数据的延迟
	MaxAge      time.Duration // 早于 now - MaxAge 的采样被淘汰
	SpeedFactor float64       // 只剩一个可用采样时，每帧逼近剩余距离的比例
	Capacity    int           // 每个缓冲的采样上限
}

// DefaultConfig 默认参数：延迟 100ms，最长 1s，逼近比例 0.1，容量 20
func DefaultConfig() Config {
	return Config{
		RenderDelay: 100 * time.Millisecond,
		MaxAge:      time.Second,
		SpeedFactor: 0.1,
		Capacity:    DefaultCapacity,
	}
}

// Buffers 每个远端实体的采样环形缓冲
type Buffers struct {
	Positions Ring[mgl64.Vec3]
	Rotations Ring[mgl64.Quat]
}

// NewBuffers 两个缓冲都按 capacity 分配
func NewBuffers(capacity int) Buffers {
	return Buffers{
		Positions: *NewRing[mgl64.Vec3](capacity),
		Rotations: *NewRing[mgl64.Quat](capacity),
	}
}

// Push 将一次网络更新写入两个缓冲
// 时间戳过旧或重复时两者都不保留，返回 false
func (b *Buffers) Push(pos mgl64.Vec3, rot mgl64.Quat, ts int64) bool {
	ok := b.Positions.Push(pos, ts)
	b.Rotations.Push(rot, ts)
	return ok
}

// Clear 清空两个缓冲
func (b *Buffers) Clear() {
	b.Positions.Clear()
	b.Rotations.Clear()
}

// Result 一帧的平滑变换
type Result struct {
	Position     mgl64.Vec3
	Rotation     mgl64.Quat
	PositionMode Mode
	RotationMode Mode
}

// Engine 按渲染延迟对远端采样做插值或外推，无状态，可被多个实体共用
type Engine struct {
	cfg Config
}

// New 创建插值引擎，非法字段取默认值（RenderDelay 可为 0）
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.SpeedFactor <= 0 || cfg.SpeedFactor > 1 {
		cfg.SpeedFactor = def.SpeedFactor
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	return &Engine{cfg: cfg}
}

// Config 生效的参数
func (e *Engine) Config() Config { return e.cfg }

// Step 清理 b 并计算 now（毫秒）时应渲染的变换，pos 与 rot 为当前渲染值
func (e *Engine) Step(b *Buffers, now int64, pos mgl64.Vec3, rot mgl64.Quat) Result {
	renderTime := now - e.cfg.RenderDelay.Milliseconds()
	maxAge := e.cfg.MaxAge.Milliseconds()

	prune(&b.Positions, now, renderTime, maxAge)
	prune(&b.Rotations, now, renderTime, maxAge)

	var res Result
	res.Position, res.PositionMode = evaluate(&b.Positions, renderTime, pos, Lerp, e.cfg.SpeedFactor)
	res.Rotation, res.RotationMode = evaluate(&b.Rotations, renderTime, rot, Slerp, e.cfg.SpeedFactor)
	return res
}

// prune 丢弃超过 maxAge 的采样，再让夹住 renderTime 的两个采样位于队首
func prune[T any](r *Ring[T], now, renderTime, maxAge int64) {
	for r.Len() > 0 && now-r.At(0).Timestamp > maxAge {
		r.PopFront()
	}
	for r.Len() > 2 && r.At(1).Timestamp <= renderTime {
		r.PopFront()
	}
}

// evaluate 在两采样间插值，过了最新采样则逼近它，未到最旧采样则保持
func evaluate[T any](r *Ring[T], renderTime int64, current T, blend func(a, b T, t float64) T, speed float64) (T, Mode) {
	switch r.Len() {
	case 0:
		return current, Held
	case 1:
		return blend(current, r.At(0).Value, speed), Extrapolated
	}

	s0, s1 := r.At(0), r.At(1)
	if s0.Timestamp <= renderTime && renderTime <= s1.Timestamp {
		t := float64(renderTime-s0.Timestamp) / float64(s1.Timestamp-s0.Timestamp)
		return blend(s0.Value, s1.Value, t), Interpolated
	}
	if newest, _ := r.Newest(); renderTime > newest.Timestamp {
		return blend(current, newest.Value, speed), Extrapolated
	}
	// 回放尚未到达最旧的采样
	return current, Held
}

// Lerp 线性插值，t=0 精确得到 a，t=1 精确得到 b
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Slerp 沿最短弧球面插值
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}
