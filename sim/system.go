package sim

// System 每帧在可变频率的更新阶段运行一次
// 这里做表现层的工作：放置变换、动画、网络收发
type System interface {
	Update(frameDelta, alpha float64) error
}

// FixedUpdater 额外按固定物理步长运行的系统
type FixedUpdater interface {
	FixedUpdate(dt float64) error
}

// Initializer 注册时初始化的系统
type Initializer interface {
	Init() error
}

// Shutdowner 调度器停止时释放的系统
type Shutdowner interface {
	Shutdown()
}

// Func 将普通函数适配为 System
type Func func(frameDelta, alpha float64) error

// Update 调用 f
func (f Func) Update(frameDelta, alpha float64) error { return f(frameDelta, alpha) }
