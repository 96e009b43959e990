package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"roomsync/component"
	"roomsync/ecs"
	"roomsync/interp"
	"roomsync/physics"
	"roomsync/protocol"
	"roomsync/server"
	"roomsync/systems"
)

type peer struct {
	c     *Client
	store *ecs.Store
	clock *clock
}

func connectPeer(t *testing.T, url, name string, start int64) *peer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.RoomType = "arena-e2e"
	cfg.Identity = protocol.Identity{Name: name}

	p := &peer{store: ecs.NewStore(), clock: newClock(start)}
	p.c = New(cfg, p.store, physics.NewWorld(physics.DefaultConfig()), zaptest.NewLogger(t).Sugar(), WithClock(p.clock.now))
	t.Cleanup(p.c.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.c.Connect(ctx))
	return p
}

// pump runs Update until cond holds.
func (p *peer) pump(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		assert.NoError(t, p.c.Update(0, 0))
		return cond()
	}, 3*time.Second, 5*time.Millisecond)
}

func (p *peer) newestSample(id int64) int64 {
	e, ok := p.c.Peer(id)
	if !ok {
		return 0
	}
	entry, err := p.store.Entry(e)
	if err != nil {
		return 0
	}
	s, ok := component.Interpolation.Get(entry).Positions.Newest()
	if !ok {
		return 0
	}
	return s.Timestamp
}

// A peer reports five moves 50ms apart; the relay stamps each on receipt
// 10ms later. Rendered 80ms after the first move with a 30ms playback delay,
// the avatar sits strictly between the first two reported positions.
func TestEndToEnd_RemoteRenderedBetweenMoves(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const start = int64(5_000_000)

	relayClock := newClock(start - 2000)
	srv := server.New(server.DefaultConfig(), zaptest.NewLogger(t).Sugar(), server.WithClock(relayClock.now))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	sender := connectPeer(t, url, "sender", start-1000)
	sender.pump(t, func() bool { return sender.c.State() == InRoom })
	watcher := connectPeer(t, url, "watcher", start)
	watcher.pump(t, func() bool { return watcher.c.State() == InRoom })

	senderID := sender.c.PlayerID()
	_, ok := watcher.c.Peer(senderID)
	require.True(t, ok, "the joiner sees the sender in its roster")
	assert.Equal(t, sender.c.RoomID(), watcher.c.RoomID())
	sender.pump(t, func() bool { return sender.c.PeerCount() == 1 })

	local, ok := sender.store.Local()
	require.True(t, ok)
	report := func(at int64, x float64) {
		*component.Position.Get(local) = mgl64.Vec3{x, 1.5, 0}
		sender.clock.set(at)
		relayClock.set(at + 10)
		require.NoError(t, sender.c.Update(0, 0))
		watcher.pump(t, func() bool { return watcher.newestSample(senderID) == at+10 })
	}
	for i := int64(0); i < 5; i++ {
		report(start+i*50, float64(i)*10)
	}
	e, _ := watcher.c.Peer(senderID)
	entry, err := watcher.store.Entry(e)
	require.NoError(t, err)
	buf := component.Interpolation.Get(entry)
	require.Equal(t, 5, buf.Positions.Len(), "every move is buffered")
	require.Equal(t, 5, buf.Rotations.Len())

	engine := interp.New(interp.Config{RenderDelay: 30 * time.Millisecond})
	render := systems.NewInterpolation(watcher.store, engine).
		WithClock(func() time.Time { return time.UnixMilli(start + 80) })
	require.NoError(t, render.Update(0, 0))

	x := component.Position.Get(entry).X()
	assert.Greater(t, x, 0.0)
	assert.Less(t, x, 10.0)
	assert.InDelta(t, 8, x, 1e-9)
}

func TestEndToEnd_LeaveRemovesPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := server.New(server.DefaultConfig(), zaptest.NewLogger(t).Sugar())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	a := connectPeer(t, url, "a", time.Now().UnixMilli())
	a.pump(t, func() bool { return a.c.State() == InRoom })
	b := connectPeer(t, url, "b", time.Now().UnixMilli())
	b.pump(t, func() bool { return b.c.State() == InRoom })
	a.pump(t, func() bool { return a.c.PeerCount() == 1 })

	var chat []protocol.ChatMessage
	a.c.Events.ChatMessage.Subscribe(func(m protocol.ChatMessage) { chat = append(chat, m) })
	require.NoError(t, b.c.SendChat("hello"))
	a.pump(t, func() bool { return len(chat) == 1 })
	assert.Equal(t, "b", chat[0].Author)

	var left []int64
	a.c.Events.PlayerLeft.Subscribe(func(id int64) { left = append(left, id) })
	b.c.Close()
	a.pump(t, func() bool { return len(left) == 1 })
	assert.Equal(t, []int64{b.c.PlayerID()}, left)
	assert.Equal(t, 1, a.store.Len())
}
