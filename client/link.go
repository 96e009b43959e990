package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsync/protocol"
)

const (
	writeWait    = 5 * time.Second
	maxFrameSize = 64 << 10
)

// transport 连接的发送端
type transport interface {
	Send(f protocol.Frame) bool
	Close()
}

// event 收件箱中的一项：已解码消息，或连接建立/断开
type event struct {
	from transport
	msg  protocol.Message
	up   bool
	down bool
}

// Dialer 为一次连接尝试打开 WebSocket
type Dialer func(ctx context.Context, url string) (*websocket.Conn, error)

// defaultDial 使用 websocket.DefaultDialer 拨号
func defaultDial(ctx context.Context, url string) (*websocket.Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return ws, err
}

// link 持有一个 WebSocket 及其读写两个泵
type link struct {
	ws   *websocket.Conn
	log  *zap.SugaredLogger
	send chan protocol.Frame
	done chan struct{}
	once sync.Once
}

func newLink(ws *websocket.Conn, queue int, log *zap.SugaredLogger) *link {
	return &link{
		ws:   ws,
		log:  log,
		send: make(chan protocol.Frame, queue),
		done: make(chan struct{}),
	}
}

// Send 非阻塞地压入发送队列，返回是否被接受
func (l *link) Send(f protocol.Frame) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.send <- f:
		return true
	default:
		return false
	}
}

// Close 关闭连接，可重复调用
func (l *link) Close() {
	l.once.Do(func() {
		close(l.done)
		_ = l.ws.Close()
	})
}

// writePump 独立协程，将发送队列写出到 WS
func (l *link) writePump() {
	for {
		select {
		case <-l.done:
			return
		case f := <-l.send:
			_ = l.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.ws.WriteMessage(f.Kind, f.Data); err != nil {
				l.log.Debugw("write failed", "err", err)
				l.Close()
				return
			}
		}
	}
}

// readPump 投递解码后的消息直到连接出错，最后投递断开事件
// 格式错误的帧记录日志后跳过
func (l *link) readPump(post func(event)) {
	defer func() {
		l.Close()
		post(event{from: l, down: true})
	}()
	l.ws.SetReadLimit(maxFrameSize)
	for {
		kind, data, err := l.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.log.Debugw("read failed", "err", err)
			}
			return
		}
		msg, err := protocol.Decode(protocol.Frame{Kind: kind, Data: data})
		if err != nil {
			l.log.Warnw("dropping malformed frame", "err", err)
			continue
		}
		post(event{from: l, msg: msg})
	}
}
