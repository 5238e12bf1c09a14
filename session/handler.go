package session

import (
	"strconv"

	"github.com/go-gotop/rtbridge/bridge"
	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/openapi"
)

// handle 在 loop 协程中执行
func (s *Session) handle(evt bridge.Event) {
	switch evt.Type {
	case bridge.EventConnecting:
		s.machine.transition(Connecting)
	case bridge.EventConnected:
		if !s.machine.transition(Connected) {
			return
		}
		s.needReady = true
		creds := s.Credentials()
		s.write(openapi.ApplicationAuthReq{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
		})
	case bridge.EventDisconnected:
		s.onDisconnected(evt.Err)
	case bridge.EventMessage:
		s.onMessage(evt.Data)
	}
}

func (s *Session) onDisconnected(cause error) {
	s.machine.transition(Disconnected)
	s.spots.Reset()
	s.quotes = make(map[int64]exchange.QuoteEvent)
	err := errs.Connection("connection lost")
	if cause != nil {
		err = errs.Connection("connection lost: %v", cause)
	}
	if n := s.calls.FailAll(err); n > 0 {
		s.logger.Warnf("%d in-flight requests failed: %v", n, err)
	}
}

func (s *Session) onMessage(data []byte) {
	msg, err := openapi.Decode(data)
	if err != nil {
		s.logger.Warnf("discard message: %v", err)
		return
	}

	if msg.ClientMsgID != "" {
		// 认证错误先触发刷新再交付, 刷新请求自身的失败会被合并
		if verr := msg.Err(); verr != nil && errs.IsAuth(verr) {
			s.onAuthError(verr)
		}
		// 超时后到达的响应由配对表丢弃
		s.calls.Complete(msg.ClientMsgID, msg)
		return
	}

	switch msg.PayloadType {
	case openapi.PayloadApplicationAuthRes:
		s.onApplicationAuth()
	case openapi.PayloadGetAccountsByAccessTokenRes:
		res := &openapi.GetAccountListByAccessTokenRes{}
		if s.extract(msg, res) {
			s.onAccountList(res)
		}
	case openapi.PayloadAccountAuthRes:
		s.onAccountAuth()
	case openapi.PayloadSymbolsListRes:
		res := &openapi.SymbolsListRes{}
		if s.extract(msg, res) {
			s.setSymbols(res.Symbol)
			s.logger.Infof("loaded %d symbols", len(res.Symbol))
		}
	case openapi.PayloadSpotEvent:
		res := &openapi.SpotEvent{}
		if s.extract(msg, res) {
			s.onSpot(res)
		}
	case openapi.PayloadErrorRes:
		s.onVendorError(msg.Err())
	case openapi.PayloadAccountsTokenInvalidatedEvent:
		res := &openapi.AccountsTokenInvalidatedEvent{}
		s.extract(msg, res)
		s.onAuthError(errs.Auth("accounts token invalidated: %s", res.Reason))
	case openapi.PayloadClientDisconnectEvent:
		res := &openapi.ClientDisconnectEvent{}
		s.extract(msg, res)
		s.logger.Warnf("vendor disconnect event: %s", res.Reason)
	case openapi.PayloadHeartbeatEvent:
	default:
		s.logger.Debugf("unhandled message %s", msg.PayloadType)
	}
}

func (s *Session) extract(msg *openapi.Message, out interface{}) bool {
	if err := msg.Extract(out); err != nil {
		s.logger.Warnf("discard message: %v", err)
		return false
	}
	return true
}

func (s *Session) onApplicationAuth() {
	if !s.machine.transition(AppAuthorized) {
		return
	}
	creds := s.Credentials()
	s.write(openapi.GetAccountListByAccessTokenReq{AccessToken: creds.AccessToken})
	if creds.AccountID != 0 {
		s.write(openapi.AccountAuthReq{
			CtidTraderAccountID: creds.AccountID,
			AccessToken:         creds.AccessToken,
		})
	}
}

// onAccountList 未配置账户时选择第一个匹配的账户
func (s *Session) onAccountList(res *openapi.GetAccountListByAccessTokenRes) {
	s.setAccounts(res.CtidTraderAccount)
	creds := s.Credentials()
	if creds.AccountID != 0 || s.machine.current() != AppAuthorized {
		return
	}
	for _, acc := range res.CtidTraderAccount {
		if acc.IsLive != creds.IsLive {
			continue
		}
		s.setAccountID(acc.CtidTraderAccountID)
		s.logger.Infof("use account %d", acc.CtidTraderAccountID)
		s.write(openapi.AccountAuthReq{
			CtidTraderAccountID: acc.CtidTraderAccountID,
			AccessToken:         creds.AccessToken,
		})
		return
	}
	s.machine.flag(errs.NotFound("no %s account for access token", liveName(creds.IsLive)))
}

func liveName(live bool) string {
	if live {
		return "live"
	}
	return "demo"
}

func (s *Session) onAccountAuth() {
	if !s.machine.transition(AccountAuthorized) {
		return
	}
	if !s.needReady {
		return
	}
	s.needReady = false
	s.write(openapi.SymbolsListReq{CtidTraderAccountID: s.Credentials().AccountID})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runReady()
	}()
}

func (s *Session) onSpot(evt *openapi.SpotEvent) {
	q := s.quotes[evt.SymbolID]
	q.Symbol = strconv.FormatInt(evt.SymbolID, 10)
	q.Exchange = exchange.CTraderExchange
	// 推送只包含变化的一侧
	if evt.Bid != nil {
		q.Bid = exchange.ScalePrice(*evt.Bid, exchange.SpotDigits)
	}
	if evt.Ask != nil {
		q.Ask = exchange.ScalePrice(*evt.Ask, exchange.SpotDigits)
	}
	if evt.Timestamp != 0 {
		q.Timestamp = evt.Timestamp
	}
	s.quotes[evt.SymbolID] = q

	s.spots.Dispatch(q.Symbol, broker.Event{
		Topic:   q.Symbol,
		Source:  exchange.CTraderExchange,
		Payload: q,
	})
}

// onVendorError 未配对的错误, 认证类触发刷新, 其余只记录
func (s *Session) onVendorError(err error) {
	if err == nil {
		return
	}
	if errs.IsAuth(err) {
		s.onAuthError(err)
		return
	}
	s.logger.Warnf("vendor error: %v", err)
}

// onAuthError 应用授权之后才能刷新凭证, 之前的认证失败只标记错误
func (s *Session) onAuthError(err error) {
	if s.machine.current() < AppAuthorized || errs.VendorCode(err) == "CH_CLIENT_AUTH_FAILURE" {
		s.machine.flag(err)
		return
	}
	s.triggerRefresh(err)
}
