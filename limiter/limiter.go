package limiter

type LimitType string

const (
	WsConnectLimit    LimitType = "WS_CONNECT"    // websocket 建连/重连
	TokenRefreshLimit LimitType = "TOKEN_REFRESH" // 凭证刷新
)

//go:generate mockgen -destination=../limiter/mocks/limiter.go -package=mklimiter . Limiter
type Limiter interface {
	WsAllow() bool
	RefreshAllow() bool
}
