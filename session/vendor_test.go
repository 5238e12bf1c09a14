package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/bridge/bridgetest"
	"github.com/go-gotop/rtbridge/openapi"
)

const testAccount int64 = 7001

// fakeVendor 在 loop 协程中按请求类型回包, 模拟交易商
type fakeVendor struct {
	mux        sync.Mutex
	ep         *bridgetest.Endpoint
	validToken string
	silent     map[openapi.PayloadType]bool
	symbols    map[int64]openapi.Symbol
	bars       []openapi.Trendbar
	fail       map[openapi.PayloadType]string
	checkList  bool
	received   []*openapi.Message
}

func newFakeVendor() *fakeVendor {
	v := &fakeVendor{
		ep:         bridgetest.New(),
		validToken: "access-1",
		silent:     make(map[openapi.PayloadType]bool),
		fail:       make(map[openapi.PayloadType]string),
		symbols: map[int64]openapi.Symbol{
			1: {SymbolID: 1, Digits: 5},
			2: {SymbolID: 2, Digits: 2},
			3: {SymbolID: 3, Digits: 3},
		},
	}
	v.ep.Reply = v.reply
	return v
}

func push(v *fakeVendor, id string, p interface{}, pt openapi.PayloadType) {
	raw, _ := openapi.Json.Marshal(p)
	data, _ := openapi.Json.Marshal(&openapi.Message{ClientMsgID: id, PayloadType: pt, Payload: raw})
	v.ep.Push(data)
}

func (v *fakeVendor) setSilent(pt openapi.PayloadType, silent bool) {
	v.mux.Lock()
	v.silent[pt] = silent
	v.mux.Unlock()
}

func (v *fakeVendor) setValidToken(token string) {
	v.mux.Lock()
	v.validToken = token
	v.mux.Unlock()
}

// setCheckList 账户列表请求也校验 access token
func (v *fakeVendor) setCheckList() {
	v.mux.Lock()
	v.checkList = true
	v.mux.Unlock()
}

// setFail 对某类请求回复错误码, 空字符串恢复正常
func (v *fakeVendor) setFail(pt openapi.PayloadType, code string) {
	v.mux.Lock()
	v.fail[pt] = code
	v.mux.Unlock()
}

// count 收到的某类请求数量
func (v *fakeVendor) count(pt openapi.PayloadType) int {
	v.mux.Lock()
	defer v.mux.Unlock()
	n := 0
	for _, m := range v.received {
		if m.PayloadType == pt {
			n++
		}
	}
	return n
}

func (v *fakeVendor) last(pt openapi.PayloadType) *openapi.Message {
	v.mux.Lock()
	defer v.mux.Unlock()
	for i := len(v.received) - 1; i >= 0; i-- {
		if v.received[i].PayloadType == pt {
			return v.received[i]
		}
	}
	return nil
}

func (v *fakeVendor) reply(ep *bridgetest.Endpoint, data []byte) {
	msg, err := openapi.Decode(data)
	if err != nil {
		return
	}
	v.mux.Lock()
	v.received = append(v.received, msg)
	silent := v.silent[msg.PayloadType]
	token := v.validToken
	code := v.fail[msg.PayloadType]
	checkList := v.checkList
	v.mux.Unlock()
	if silent {
		return
	}

	id := msg.ClientMsgID
	if code != "" {
		push(v, id, openapi.ErrorRes{ErrorCode: code, Description: "rejected"}, openapi.PayloadErrorRes)
		return
	}
	switch msg.PayloadType {
	case openapi.PayloadApplicationAuthReq:
		push(v, id, struct{}{}, openapi.PayloadApplicationAuthRes)
	case openapi.PayloadGetAccountsByAccessTokenReq:
		req := &openapi.GetAccountListByAccessTokenReq{}
		msg.Extract(req)
		if checkList && req.AccessToken != token {
			push(v, id, openapi.ErrorRes{ErrorCode: "CH_ACCESS_TOKEN_INVALID", Description: "expired"}, openapi.PayloadErrorRes)
			return
		}
		push(v, id, openapi.GetAccountListByAccessTokenRes{
			CtidTraderAccount: []openapi.CtidTraderAccount{
				{CtidTraderAccountID: 9009, IsLive: true},
				{CtidTraderAccountID: testAccount, IsLive: false},
			},
		}, openapi.PayloadGetAccountsByAccessTokenRes)
	case openapi.PayloadAccountAuthReq:
		req := &openapi.AccountAuthReq{}
		msg.Extract(req)
		if req.AccessToken != token {
			push(v, id, openapi.ErrorRes{ErrorCode: "CH_ACCESS_TOKEN_INVALID", Description: "expired"}, openapi.PayloadErrorRes)
			return
		}
		push(v, id, openapi.AccountAuthRes{CtidTraderAccountID: req.CtidTraderAccountID}, openapi.PayloadAccountAuthRes)
	case openapi.PayloadSymbolsListReq:
		push(v, id, openapi.SymbolsListRes{Symbol: []openapi.LightSymbol{
			{SymbolID: 1, SymbolName: "EURUSD", Enabled: true},
			{SymbolID: 2, SymbolName: "XAUUSD", Enabled: true},
		}}, openapi.PayloadSymbolsListRes)
	case openapi.PayloadSymbolByIDReq:
		req := &openapi.SymbolByIDReq{}
		msg.Extract(req)
		res := openapi.SymbolByIDRes{}
		v.mux.Lock()
		for _, sid := range req.SymbolID {
			if sym, ok := v.symbols[sid]; ok {
				res.Symbol = append(res.Symbol, sym)
			}
		}
		v.mux.Unlock()
		push(v, id, res, openapi.PayloadSymbolByIDRes)
	case openapi.PayloadSubscribeSpotsReq:
		push(v, id, struct{}{}, openapi.PayloadSubscribeSpotsRes)
	case openapi.PayloadUnsubscribeSpotsReq:
		push(v, id, struct{}{}, openapi.PayloadUnsubscribeSpotsRes)
	case openapi.PayloadGetTrendbarsReq:
		v.mux.Lock()
		bars := v.bars
		v.mux.Unlock()
		push(v, id, openapi.GetTrendbarsRes{Trendbar: bars}, openapi.PayloadGetTrendbarsRes)
	case openapi.PayloadRefreshTokenReq:
		push(v, id, openapi.RefreshTokenRes{AccessToken: "access-2", RefreshToken: "refresh-2"}, openapi.PayloadRefreshTokenRes)
	}
}

type memStore struct {
	mux   sync.Mutex
	saved [][2]string
}

func (m *memStore) SaveTokens(access, refresh string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.saved = append(m.saved, [2]string{access, refresh})
	return nil
}

func (m *memStore) Saved() [][2]string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([][2]string(nil), m.saved...)
}

type stateRecorder struct {
	mux    sync.Mutex
	states []State
}

func (r *stateRecorder) record(from, to State) {
	r.mux.Lock()
	r.states = append(r.states, to)
	r.mux.Unlock()
}

func (r *stateRecorder) States() []State {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]State(nil), r.states...)
}

func testCreds() Credentials {
	return Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		AccountID:    testAccount,
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, 2*time.Second, 5*time.Millisecond, "want state %s, got %s", want, s.State())
}
