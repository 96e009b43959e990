package interp

// DefaultCapacity 零值环形缓冲的容量
const DefaultCapacity = 20

// Sample 带毫秒时间戳的值
type Sample[T any] struct {
	Value     T
	Timestamp int64
}

// Ring 按到达顺序保存采样的有界 FIFO，溢出时淘汰最旧的采样
// 零值可直接使用，容量为 DefaultCapacity
type Ring[T any] struct {
	buf  []Sample[T]
	head int
	n    int
}

// NewRing 创建最多容纳 capacity 个采样的环形缓冲
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{buf: make([]Sample[T], capacity)}
}

// ensure 零值首次使用时分配
func (r *Ring[T]) ensure() {
	if r.buf == nil {
		r.buf = make([]Sample[T], DefaultCapacity)
	}
}

// Push 追加采样
// 时间戳不晚于最新采样视为重复或乱序到达，直接丢弃并返回 false
func (r *Ring[T]) Push(v T, ts int64) bool {
	r.ensure()
	if r.n > 0 && ts <= r.At(r.n-1).Timestamp {
		return false
	}
	if r.n == len(r.buf) {
		r.PopFront()
	}
	r.buf[(r.head+r.n)%len(r.buf)] = Sample[T]{Value: v, Timestamp: ts}
	r.n++
	return true
}

// Len 当前采样数
func (r *Ring[T]) Len() int { return r.n }

// Cap 容量
func (r *Ring[T]) Cap() int {
	if r.buf == nil {
		return DefaultCapacity
	}
	return len(r.buf)
}

// At 返回第 i 旧的采样
func (r *Ring[T]) At(i int) Sample[T] {
	if i < 0 || i >= r.n {
		panic("interp: ring index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

// Newest 返回最新采样
func (r *Ring[T]) Newest() (Sample[T], bool) {
	if r.n == 0 {
		return Sample[T]{}, false
	}
	return r.At(r.n - 1), true
}

// PopFront 丢弃最旧的采样
func (r *Ring[T]) PopFront() {
	if r.n == 0 {
		return
	}
	var zero Sample[T]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.n--
}

// Samples 从旧到新复制全部采样
func (r *Ring[T]) Samples() []Sample[T] {
	out := make([]Sample[T], r.n)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Clear 清空
func (r *Ring[T]) Clear() {
	for r.n > 0 {
		r.PopFront()
	}
	r.head = 0
}
