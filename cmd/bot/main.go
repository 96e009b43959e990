package main

import (
	"context"
	"flag"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"roomsync/client"
	"roomsync/component"
	"roomsync/ecs"
	"roomsync/interp"
	"roomsync/logging"
	"roomsync/physics"
	"roomsync/protocol"
	"roomsync/sim"
	"roomsync/systems"
)

// 无界面客户端入口：加入房间、绕圈行走，并记录看到的一切
func main() {
	cfg := client.DefaultConfig()
	cfg.Identity.Name = "bot"
	cfg.RegisterFlags(flag.CommandLine)
	logPath := flag.String("log", "", "rolling log file path (stderr when empty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	hz := flag.Float64("hz", 60, "display frames per second")
	renderDelay := flag.Duration("render-delay", interp.DefaultConfig().RenderDelay, "remote playback delay")
	period := flag.Duration("circle", 4*time.Second, "time to walk one circle")
	flag.Parse()

	log := logging.New(logging.Options{FilePath: *logPath, Debug: *debug})
	defer logging.Sync(log)

	store := ecs.NewStore()
	world := physics.NewWorld(physics.DefaultConfig())
	c := client.New(cfg, store, world, log)

	icfg := interp.DefaultConfig()
	icfg.RenderDelay = *renderDelay
	icfg.Capacity = cfg.BufferCapacity

	scripts := systems.NewScripts(log)
	scripts.Load(&logScript{log: log.Named("script")})
	c.Events.PlayerJoined.Subscribe(func(p protocol.PlayerInfo) { scripts.PlayerJoined(p.ID) })
	c.Events.PlayerLeft.Subscribe(scripts.PlayerLeft)
	c.Events.ConnectionStatus.Subscribe(func(s client.State) { log.Infow("connection", "status", s) })
	c.Events.RoomUpdate.Subscribe(func(r client.RoomStatus) {
		log.Infow("room update", "room", r.RoomID, "players", r.PlayerCount, "max", r.MaxPlayers)
	})
	c.Events.ChatMessage.Subscribe(func(m protocol.ChatMessage) { log.Infow("chat", "from", m.Author, "text", m.Text) })

	// 顺序有意义：复制先应用远端状态，再执行本地输入与物理，渲染读取物理和插值的结果
	sched := sim.NewScheduler(sim.DefaultConfig(), log)
	for _, sys := range []sim.System{
		c,
		systems.NewInput(store, &circleWalker{period: period.Seconds(), start: time.Now()}),
		systems.NewMovement(store),
		systems.NewPhysics(store, world),
		systems.NewInterpolation(store, interp.New(icfg)),
		systems.NewAnimation(store),
		scripts,
	} {
		if err := sched.Register(sys); err != nil {
			log.Fatalw("register system", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	err := c.Connect(dialCtx)
	cancel()
	if err != nil {
		log.Fatalw("connect", "err", err)
	}

	sched.Run(ctx, *hz)
	log.Infow("stopped", "steps", sched.Steps(), "droppedSeconds", sched.Dropped())
}

// circleWalker 沿圆周行走，每圈跳一次
type circleWalker struct {
	period float64
	start  time.Time
	lap    int
}

// Poll 按经过的时间计算当前方向
func (w *circleWalker) Poll() component.InputData {
	phase := time.Since(w.start).Seconds() / w.period
	angle := 2 * math.Pi * phase
	in := component.InputData{Move: mgl64.Vec2{math.Cos(angle), math.Sin(angle)}}
	if lap := int(phase); lap > w.lap {
		w.lap = lap
		in.Jump = true
	}
	return in
}

// logScript 把玩家进出写入日志的脚本
type logScript struct {
	log     *zap.SugaredLogger
	elapsed float64
}

func (s *logScript) OnPlayerJoin(id int64)  { s.log.Infow("player joined", "id", id) }
func (s *logScript) OnPlayerLeave(id int64) { s.log.Infow("player left", "id", id) }

func (s *logScript) OnUpdate(dt float64) {
	s.elapsed += dt
	if s.elapsed >= 10 {
		s.elapsed = 0
		s.log.Debug("still alive")
	}
}
