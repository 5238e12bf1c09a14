package wsmanager

import (
	"github.com/go-gotop/rtbridge/websocket"
)

// WebsocketConfig ping/pong 回调可以拿到底层连接用于回包
type WebsocketConfig struct {
	PingHandler func(appData string, conn websocket.WebSocketConn) error
	PongHandler func(appData string, conn websocket.WebSocketConn) error
}

// WebsocketManager 是 websocket 管理接口
type WebsocketManager interface {
	// AddWebsocket 拨号失败时连接仍然保留, 由巡检协程重连
	AddWebsocket(req *websocket.WebsocketRequest, conf *WebsocketConfig) (string, error)
	CloseWebsocket(uniq string) error
	GetWebsocket(uniq string) websocket.Websocket
	GetWebsockets() map[string]websocket.Websocket
	IsConnected(uniq string) bool
	Reconnect(uniq string) error
	Shutdown() error
}
