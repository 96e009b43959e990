package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"roomsync/logging"
)

// Config 调度参数
type Config struct {
	FixedStep     float64 // 固定步长（秒）
	MaxFrameDelta float64 // 帧间隔上限，也是积压上限
	MaxSubSteps   int     // 每帧最多执行的固定步数
}

// DefaultConfig 默认参数：1/60 秒步长，帧间隔上限 0.1 秒，每帧最多 3 步
func DefaultConfig() Config {
	return Config{FixedStep: 1.0 / 60, MaxFrameDelta: 0.1, MaxSubSteps: 3}
}

// Frame 一次 Advance 的结果
type Frame struct {
	Delta float64 // 裁剪后的帧间隔
	Steps int     // 本帧执行的固定步数
	Alpha float64 // 累加器 / 步长，有积压时可能大于 1
}

// Scheduler 将可变帧时间映射为固定模拟步，并按注册顺序运行系统
type Scheduler struct {
	cfg     Config
	log     *zap.SugaredLogger
	systems []System
	now     func() time.Time

	accumulator float64
	steps       uint64
	dropped     float64
}

// NewScheduler 创建调度器，非法字段取默认值
func NewScheduler(cfg Config, log *zap.SugaredLogger) *Scheduler {
	def := DefaultConfig()
	if cfg.FixedStep <= 0 {
		cfg.FixedStep = def.FixedStep
	}
	if cfg.MaxFrameDelta <= 0 {
		cfg.MaxFrameDelta = def.MaxFrameDelta
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = def.MaxSubSteps
	}
	return &Scheduler{cfg: cfg, log: logging.OrNop(log), now: time.Now}
}

// Register 追加系统，若实现 Initializer 则先初始化，失败时不注册
// 系统按注册顺序运行，应按依赖顺序注册
func (s *Scheduler) Register(sys System) error {
	if in, ok := sys.(Initializer); ok {
		if err := in.Init(); err != nil {
			return fmt.Errorf("init %s: %w", name(sys), err)
		}
	}
	s.systems = append(s.systems, sys)
	return nil
}

// Accumulator 尚未消耗的累积时间（秒）
func (s *Scheduler) Accumulator() float64 { return s.accumulator }

// Steps 已执行的固定步总数
func (s *Scheduler) Steps() uint64 { return s.steps }

// SimTime 固定步覆盖的模拟时间（秒）
func (s *Scheduler) SimTime() float64 { return float64(s.steps) * s.cfg.FixedStep }

// Dropped 因积压超过 MaxFrameDelta 而丢弃的模拟时间（秒）
func (s *Scheduler) Dropped() float64 { return s.dropped }

// Advance 运行一帧：先执行固定步，再以 alpha 执行所有 Update
func (s *Scheduler) Advance(frameDelta float64) Frame {
	if frameDelta < 0 || math.IsNaN(frameDelta) {
		frameDelta = 0
	}
	if frameDelta > s.cfg.MaxFrameDelta {
		frameDelta = s.cfg.MaxFrameDelta
	}
	s.accumulator += frameDelta

	dt := s.cfg.FixedStep
	steps := 0
	for s.accumulator >= dt && steps < s.cfg.MaxSubSteps {
		for _, sys := range s.systems {
			if fu, ok := sys.(FixedUpdater); ok {
				s.call(sys, "fixedUpdate", func() error { return fu.FixedUpdate(dt) })
			}
		}
		s.accumulator -= dt
		steps++
		s.steps++
	}
	// 超出步数上限的部分留在累加器中由后续帧消化
	// 积压以 MaxFrameDelta 为上限，长时间卡顿不会滚雪球
	if s.accumulator > s.cfg.MaxFrameDelta {
		s.dropped += s.accumulator - s.cfg.MaxFrameDelta
		s.accumulator = s.cfg.MaxFrameDelta
	}

	// 有积压时 alpha 大于 1，由使用方裁剪
	alpha := s.accumulator / dt
	for _, sys := range s.systems {
		s.call(sys, "update", func() error { return sys.Update(frameDelta, alpha) })
	}
	return Frame{Delta: frameDelta, Steps: steps, Alpha: alpha}
}

// call 隔离单个系统：错误与 panic 只记录日志，本帧继续
func (s *Scheduler) call(sys System, phase string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("system panicked", "system", name(sys), "phase", phase, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		s.log.Warnw("system failed", "system", name(sys), "phase", phase, "err", err)
	}
}

// Run 以每秒 hz 帧驱动 Advance，直到 ctx 结束，然后关闭所有系统
func (s *Scheduler) Run(ctx context.Context, hz float64) {
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()
	defer s.Shutdown()

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			s.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Shutdown 按注册的逆序释放系统
func (s *Scheduler) Shutdown() {
	for i := len(s.systems) - 1; i >= 0; i-- {
		sys := s.systems[i]
		if sd, ok := sys.(Shutdowner); ok {
			s.call(sys, "shutdown", func() error { sd.Shutdown(); return nil })
		}
	}
}

// name 系统名，用于日志
func name(sys System) string {
	if n, ok := sys.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", sys)
}
