package gorilla

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/websocket"
)

func NewGorillaWebsocket(conn websocket.WebSocketConn, config *websocket.WebsocketConfig, logger log.Logger) *GorillaWebsocket {
	if logger == nil {
		logger = log.DefaultLogger
	}
	g := &GorillaWebsocket{
		conn:   conn,
		config: config,
		logger: log.NewHelper(logger),
		cycle:  newCycle(),
	}
	// 尚未连接, 视为读协程已经结束
	g.cycle.finish()
	return g
}

// cycle 一次连接周期内的关闭信号
type cycle struct {
	closeCh   chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
	doneOnce  sync.Once
}

func newCycle() *cycle {
	return &cycle{
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (c *cycle) finish() {
	c.doneOnce.Do(func() {
		close(c.doneCh)
	})
}

// GorillaWebsocket 是 Websocket 接口的实现
// 读协程收到消息后同步调用 MessageHandler, 调用方不能在回调里阻塞太久
type GorillaWebsocket struct {
	messageCount uint64
	isConnected  atomic.Bool
	conn         websocket.WebSocketConn
	config       *websocket.WebsocketConfig
	logger       *log.Helper
	mux          sync.Mutex
	req          *websocket.WebsocketRequest
	cycle        *cycle
	connectTime  time.Time
}

// Connect 开启新的连接周期, 调用前需保证上一个周期已经 Disconnect
func (w *GorillaWebsocket) Connect(req *websocket.WebsocketRequest) error {
	c := newCycle()
	w.mux.Lock()
	w.req = req
	w.cycle = c
	w.mux.Unlock()

	if req.ConnectingHandler != nil {
		req.ConnectingHandler(req.ID)
	}
	if err := w.conn.Dial(req.Endpoint, nil); err != nil {
		// 读协程没有启动, 直接标记完成
		c.finish()
		if req.ErrorHandler != nil {
			req.ErrorHandler(req.ID, err)
		}
		return err
	}
	w.configure()

	w.mux.Lock()
	w.connectTime = time.Now()
	w.mux.Unlock()
	atomic.StoreUint64(&w.messageCount, 0)
	w.isConnected.Store(true)

	if req.ConnectedHandler != nil {
		req.ConnectedHandler(req.ID)
	}
	go w.readMessages(req, c)
	return nil
}

func (w *GorillaWebsocket) configure() {
	if w.config == nil {
		return
	}
	if w.config.PingHandler != nil {
		w.conn.SetPingHandler(w.config.PingHandler)
	}
	if w.config.PongHandler != nil {
		w.conn.SetPongHandler(w.config.PongHandler)
	}
}

func (w *GorillaWebsocket) readMessages(req *websocket.WebsocketRequest, c *cycle) {
	defer c.finish() // 确保此方法退出时标记doneCh为已完成
	for {
		select {
		case <-c.closeCh: // 如果收到关闭信号，则立即退出循环
			return
		default:
			_, message, err := w.conn.ReadMessage()
			if err != nil {
				// 当遇到错误时，首先检查是否因为连接已关闭
				select {
				case <-c.closeCh: // 主动关闭, 不回调错误
				default:
					w.isConnected.Store(false)
					w.logger.Warnf("websocket %s read error: %v", req.ID, err)
					if req.ErrorHandler != nil {
						req.ErrorHandler(req.ID, err)
					}
				}
				return
			}
			atomic.AddUint64(&w.messageCount, 1)
			if req.MessageHandler != nil {
				req.MessageHandler(message) // 处理接收到的消息
			}
		}
	}
}

func (w *GorillaWebsocket) ID() string {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.req == nil {
		return ""
	}
	return w.req.ID
}

func (w *GorillaWebsocket) Disconnect() error {
	w.mux.Lock()
	c := w.cycle
	w.mux.Unlock()

	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh) // 通知读协程退出
		err = w.conn.Close()
	})
	w.isConnected.Store(false)
	<-c.doneCh // 确保读协程已经结束
	return err
}

func (w *GorillaWebsocket) Reconnect() error {
	w.Disconnect()

	w.mux.Lock()
	req := w.req
	w.mux.Unlock()
	if req == nil {
		return ErrNotDialed
	}
	// 重新建立连接
	return w.Connect(req)
}

func (w *GorillaWebsocket) IsConnected() bool {
	return w.isConnected.Load()
}

func (w *GorillaWebsocket) WriteMessage(messageType int, data []byte) error {
	return w.conn.WriteMessage(messageType, data)
}

func (w *GorillaWebsocket) GetCurrentRate() int {
	w.mux.Lock()
	elapsed := time.Since(w.connectTime).Seconds()
	w.mux.Unlock()
	if elapsed == 0 {
		return 0
	}
	count := atomic.LoadUint64(&w.messageCount)
	rate := float64(count) / elapsed
	return int(rate) // 返回每秒消息数
}

func (w *GorillaWebsocket) ConnectionDuration() time.Duration {
	w.mux.Lock()
	defer w.mux.Unlock()
	return time.Since(w.connectTime)
}
