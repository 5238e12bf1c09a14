package manager

import (
	"errors"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/websocket"
	"github.com/go-gotop/rtbridge/websocket/gorilla"
	"github.com/go-gotop/rtbridge/wsmanager"
)

var (
	// 错误定义
	ErrMaxConnReached = errors.New("max connection reached")
	ErrWSNotFound     = errors.New("websocket not found")
	ErrWSExists       = errors.New("websocket already exists")
	ErrLimitExceed    = errors.New("websocket request too frequent, please try again later")
)

// entry 单个连接, closed 之后巡检协程不再重连
type entry struct {
	mux    sync.Mutex
	ws     websocket.Websocket
	closed bool
}

type Manager struct {
	config   *connConfig       // 连接配置
	mux      sync.Mutex        // 互斥锁
	wsSets   map[string]*entry // websocket 集合
	exitChan chan struct{}     // 退出通道
	doneChan chan struct{}
	once     sync.Once
}

var _ wsmanager.WebsocketManager = (*Manager)(nil)

func NewManager(opts ...ConnConfig) *Manager {
	config := &connConfig{
		rawLogger:       log.DefaultLogger,
		maxConn:         100,
		maxConnDuration: 24 * time.Hour,
		connLimiter:     nil,
		isCheckReConn:   true,
		checkInterval:   time.Second,
		connFactory: func() websocket.WebSocketConn {
			return gorilla.NewGorillaWebSocketConn()
		},
	}

	for _, opt := range opts {
		opt(config)
	}
	config.logger = log.NewHelper(config.rawLogger)

	m := &Manager{
		config:   config,
		wsSets:   make(map[string]*entry),
		exitChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	if config.isCheckReConn {
		go m.checkConnection()
	} else {
		close(m.doneChan)
	}

	return m
}

func (b *Manager) AddWebsocket(req *websocket.WebsocketRequest, conf *wsmanager.WebsocketConfig) (string, error) {
	b.mux.Lock()
	// 最大连接数限制
	if len(b.wsSets) >= b.config.maxConn {
		b.mux.Unlock()
		return "", ErrMaxConnReached
	}
	if _, ok := b.wsSets[req.ID]; ok {
		b.mux.Unlock()
		return "", ErrWSExists
	}
	// websocket连接频率限制
	if b.config.connLimiter != nil && !b.config.connLimiter.WsAllow() {
		b.mux.Unlock()
		return "", ErrLimitExceed
	}

	conn := b.config.connFactory()
	ws := gorilla.NewGorillaWebsocket(conn, pingPong(conf, conn), b.config.rawLogger)
	e := &entry{ws: ws}
	b.wsSets[req.ID] = e
	b.mux.Unlock()

	// 拨号不持有管理器锁
	e.mux.Lock()
	defer e.mux.Unlock()
	if err := ws.Connect(req); err != nil {
		b.config.logger.Warnf("websocket %s connect error: %v", req.ID, err)
		return req.ID, err
	}
	return req.ID, nil
}

// ping pong 处理函数
func pingPong(conf *wsmanager.WebsocketConfig, conn websocket.WebSocketConn) *websocket.WebsocketConfig {
	wc := &websocket.WebsocketConfig{}
	if conf == nil {
		return wc
	}
	if conf.PingHandler != nil {
		wc.PingHandler = func(appData string) error {
			return conf.PingHandler(appData, conn)
		}
	}
	if conf.PongHandler != nil {
		wc.PongHandler = func(appData string) error {
			return conf.PongHandler(appData, conn)
		}
	}
	return wc
}

func (b *Manager) CloseWebsocket(uniq string) error {
	b.mux.Lock()
	e := b.wsSets[uniq]
	delete(b.wsSets, uniq)
	b.mux.Unlock()

	if e == nil {
		return ErrWSNotFound
	}
	e.mux.Lock()
	defer e.mux.Unlock()
	e.closed = true
	return e.ws.Disconnect()
}

func (b *Manager) GetWebsocket(uniq string) websocket.Websocket {
	b.mux.Lock()
	defer b.mux.Unlock()
	e := b.wsSets[uniq]
	if e == nil {
		return nil
	}
	return e.ws
}

func (b *Manager) GetWebsockets() map[string]websocket.Websocket {
	b.mux.Lock()
	defer b.mux.Unlock()
	out := make(map[string]websocket.Websocket, len(b.wsSets))
	for id, e := range b.wsSets {
		out[id] = e.ws
	}
	return out
}

func (b *Manager) IsConnected(uniq string) bool {
	ws := b.GetWebsocket(uniq)
	if ws == nil {
		return false
	}
	return ws.IsConnected()
}

func (b *Manager) Reconnect(uniq string) error {
	b.mux.Lock()
	e := b.wsSets[uniq]
	b.mux.Unlock()
	if e == nil {
		return ErrWSNotFound
	}
	return b.reconnect(uniq, e)
}

func (b *Manager) reconnect(uniq string, e *entry) error {
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.closed {
		return ErrWSNotFound
	}
	if b.config.connLimiter != nil && !b.config.connLimiter.WsAllow() {
		return ErrLimitExceed
	}
	b.config.logger.Infof("reconnect websocket %s", uniq)
	return e.ws.Reconnect()
}

func (b *Manager) Shutdown() error {
	b.once.Do(func() {
		close(b.exitChan)
	})
	<-b.doneChan

	b.mux.Lock()
	sets := b.wsSets
	b.wsSets = make(map[string]*entry)
	b.mux.Unlock()

	var firstErr error
	for _, e := range sets {
		e.mux.Lock()
		e.closed = true
		if err := e.ws.Disconnect(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.mux.Unlock()
	}
	return firstErr
}

func (b *Manager) checkConnection() {
	defer close(b.doneChan)
	ticker := time.NewTicker(b.config.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.exitChan:
			return
		case <-ticker.C:
			b.mux.Lock()
			snapshot := make(map[string]*entry, len(b.wsSets))
			for id, e := range b.wsSets {
				snapshot[id] = e
			}
			b.mux.Unlock()

			for id, e := range snapshot {
				select {
				case <-b.exitChan:
					return
				default:
				}
				ws := e.ws
				if ws.IsConnected() && ws.ConnectionDuration() <= b.config.maxConnDuration {
					continue
				}
				if err := b.reconnect(id, e); err != nil {
					b.config.logger.Warnf("websocket %s reconnect error: %v", id, err)
				}
			}
		}
	}
}
