package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	name     string
	log      *[]string
	fixed    int
	updates  int
	alphas   []float64
	fail     bool
	panicky  bool
	shutdown bool
}

func (r *recorder) FixedUpdate(dt float64) error {
	r.fixed++
	*r.log = append(*r.log, r.name+".fixed")
	if r.panicky {
		panic("boom")
	}
	return nil
}

func (r *recorder) Update(frameDelta, alpha float64) error {
	r.updates++
	r.alphas = append(r.alphas, alpha)
	*r.log = append(*r.log, r.name+".update")
	if r.fail {
		return errors.New("update failed")
	}
	return nil
}

func (r *recorder) Shutdown() {
	r.shutdown = true
	*r.log = append(*r.log, r.name+".shutdown")
}

func newScheduler(t *testing.T) *Scheduler {
	return NewScheduler(DefaultConfig(), zaptest.NewLogger(t).Sugar())
}

func TestScheduler_SlicingIndependent(t *testing.T) {
	var log []string
	one := newScheduler(t)
	a := &recorder{name: "a", log: &log}
	require.NoError(t, one.Register(a))
	one.Advance(0.033)

	two := newScheduler(t)
	b := &recorder{name: "b", log: &log}
	require.NoError(t, two.Register(b))
	two.Advance(0.0165)
	two.Advance(0.0165)

	assert.Equal(t, a.fixed, b.fixed)
	assert.Equal(t, one.Steps(), two.Steps())
	assert.InDelta(t, one.SimTime(), two.SimTime(), 1e-12)
	assert.InDelta(t, one.Accumulator(), two.Accumulator(), 1e-12)
}

func TestScheduler_LongRunSlicing(t *testing.T) {
	deltas := [][]float64{
		{0.02, 0.03, 0.03, 0.03},
		{0.055, 0.055},
		{0.0275, 0.0275, 0.0275, 0.0275},
	}
	var steps []uint64
	for _, seq := range deltas {
		s := newScheduler(t)
		for _, d := range seq {
			s.Advance(d)
		}
		steps = append(steps, s.Steps())
	}
	assert.Equal(t, []uint64{6, 6, 6}, steps)
}

func TestScheduler_OrderAndAlpha(t *testing.T) {
	var log []string
	s := newScheduler(t)
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log}
	require.NoError(t, s.Register(a))
	require.NoError(t, s.Register(b))

	f := s.Advance(1.5 / 60)
	assert.Equal(t, 1, f.Steps)
	assert.InDelta(t, 0.5, f.Alpha, 1e-9)
	assert.Equal(t, []string{"a.fixed", "b.fixed", "a.update", "b.update"}, log)
}

func TestScheduler_ClampsAndCarriesBacklog(t *testing.T) {
	s := newScheduler(t)
	f := s.Advance(5)
	assert.Equal(t, 0.1, f.Delta)
	assert.Equal(t, 3, f.Steps)
	assert.InDelta(t, 0.05, s.Accumulator(), 1e-9, "steps past the cap are carried")
	assert.InDelta(t, 3, f.Alpha, 1e-9)
	assert.Zero(t, s.Dropped())

	f = s.Advance(0.1)
	assert.Equal(t, 3, f.Steps)
	f = s.Advance(0.1)
	assert.Equal(t, 3, f.Steps)
	assert.InDelta(t, 0.1, s.Accumulator(), 1e-9, "backlog is bounded by the frame clamp")
	assert.InDelta(t, 0.05, s.Dropped(), 1e-9)

	f = s.Advance(-1)
	assert.Zero(t, f.Delta)
}

func TestScheduler_LongFramesSliceIndependently(t *testing.T) {
	one := newScheduler(t)
	one.Advance(0.090)

	two := newScheduler(t)
	two.Advance(0.045)
	two.Advance(0.045)

	assert.EqualValues(t, 3, one.Steps())
	assert.EqualValues(t, 5, two.Steps())
	assert.InDelta(t, one.SimTime()+one.Accumulator(), two.SimTime()+two.Accumulator(), 1e-12)

	one.Advance(0.0)
	one.Advance(0.0)
	assert.EqualValues(t, 5, one.Steps(), "the carried steps run on following frames")
}

func TestScheduler_SlowFramesConserveTime(t *testing.T) {
	s := newScheduler(t)
	const frame = 1.0 / 15
	for i := 0; i < 30; i++ {
		s.Advance(frame)
	}
	assert.InDelta(t, 30*frame, s.SimTime()+s.Accumulator()+s.Dropped(), 1e-9)
}

func TestScheduler_IsolatesFailingSystems(t *testing.T) {
	var log []string
	s := newScheduler(t)
	bad := &recorder{name: "bad", log: &log, fail: true, panicky: true}
	good := &recorder{name: "good", log: &log}
	require.NoError(t, s.Register(bad))
	require.NoError(t, s.Register(good))

	for i := 0; i < 3; i++ {
		s.Advance(1.0 / 60)
	}
	assert.Equal(t, 3, good.fixed)
	assert.Equal(t, 3, good.updates)
	assert.Equal(t, 3, bad.updates)
}

type failingInit struct{ Func }

func (failingInit) Init() error { return errors.New("no gpu") }

func TestScheduler_RegisterInitError(t *testing.T) {
	s := newScheduler(t)
	err := s.Register(failingInit{Func(func(float64, float64) error { return nil })})
	assert.Error(t, err)
	assert.Empty(t, s.systems)
}

func TestScheduler_RunShutsDownInReverse(t *testing.T) {
	var log []string
	s := newScheduler(t)
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log}
	require.NoError(t, s.Register(a))
	require.NoError(t, s.Register(b))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx, 200)

	assert.True(t, a.shutdown)
	assert.True(t, b.shutdown)
	assert.Greater(t, a.updates, 0)
	require.GreaterOrEqual(t, len(log), 2)
	assert.Equal(t, []string{"b.shutdown", "a.shutdown"}, log[len(log)-2:])
}
