package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/openapi"
)

func price(v int64) *int64 {
	return &v
}

func quoteCollector() (broker.Handler, chan exchange.QuoteEvent) {
	ch := make(chan exchange.QuoteEvent, 16)
	return func(ctx context.Context, evt broker.Event) error {
		ch <- evt.Payload.(exchange.QuoteEvent)
		return nil
	}, ch
}

func nextQuote(t *testing.T, ch chan exchange.QuoteEvent) exchange.QuoteEvent {
	t.Helper()
	select {
	case q := <-ch:
		return q
	case <-time.After(time.Second):
		t.Fatal("no quote")
	}
	return exchange.QuoteEvent{}
}

func TestSpotDispatch(t *testing.T) {
	v := newFakeVendor()
	s := newTestSession(t, v, testCreds())
	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)

	h, quotes := quoteCollector()
	sub, err := s.SubscribeSpots(context.Background(), 1, h)
	require.NoError(t, err)
	assert.Equal(t, 1, v.count(openapi.PayloadSubscribeSpotsReq))
	assert.True(t, s.Spots().Subscribed("1"))

	push(v, "", openapi.SpotEvent{SymbolID: 1, Bid: price(112345), Timestamp: 1700000000000}, openapi.PayloadSpotEvent)
	q := nextQuote(t, quotes)
	assert.Equal(t, "1", q.Symbol)
	assert.Equal(t, exchange.CTraderExchange, q.Exchange)
	assert.True(t, q.Bid.Equal(decimal.RequireFromString("1.12345")), q.Bid.String())
	assert.True(t, q.Ask.IsZero())

	// 只推送变化的一侧, 另一侧沿用上次报价
	push(v, "", openapi.SpotEvent{SymbolID: 1, Ask: price(112350)}, openapi.PayloadSpotEvent)
	q = nextQuote(t, quotes)
	assert.True(t, q.Bid.Equal(decimal.RequireFromString("1.12345")))
	assert.True(t, q.Ask.Equal(decimal.RequireFromString("1.1235")))
	assert.Equal(t, int64(1700000000000), q.Timestamp)

	// 未订阅的品种不分发
	push(v, "", openapi.SpotEvent{SymbolID: 2, Bid: price(1)}, openapi.PayloadSpotEvent)
	flushEvents(t, s, v)
	assert.Empty(t, quotes)

	require.NoError(t, s.Spots().Unsubscribe(context.Background(), sub))
	assert.Equal(t, 1, v.count(openapi.PayloadUnsubscribeSpotsReq))
	assert.False(t, s.Spots().Subscribed("1"))
	assert.Empty(t, s.Spots().Topics())
}

func TestSpotSharedUpstream(t *testing.T) {
	v := newFakeVendor()
	s := newTestSession(t, v, testCreds())
	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)
	ctx := context.Background()

	h1, q1 := quoteCollector()
	h2, q2 := quoteCollector()
	sub1, err := s.SubscribeSpots(ctx, 1, h1)
	require.NoError(t, err)
	sub2, err := s.SubscribeSpots(ctx, 1, h2)
	require.NoError(t, err)
	assert.Equal(t, 1, v.count(openapi.PayloadSubscribeSpotsReq))
	assert.Equal(t, 2, s.Spots().Listeners("1"))

	push(v, "", openapi.SpotEvent{SymbolID: 1, Bid: price(100000)}, openapi.PayloadSpotEvent)
	nextQuote(t, q1)
	nextQuote(t, q2)

	require.NoError(t, s.Spots().Unsubscribe(ctx, sub1))
	assert.Equal(t, 0, v.count(openapi.PayloadUnsubscribeSpotsReq))
	require.NoError(t, s.Spots().Unsubscribe(ctx, sub2))
	assert.Equal(t, 1, v.count(openapi.PayloadUnsubscribeSpotsReq))
}

func TestSpotSubscribeBeforeReady(t *testing.T) {
	v := newFakeVendor()
	s := newTestSession(t, v, testCreds())

	h, quotes := quoteCollector()
	_, err := s.SubscribeSpots(context.Background(), 2, h)
	require.NoError(t, err)
	assert.False(t, s.Spots().Subscribed("2"))
	assert.Equal(t, 0, v.count(openapi.PayloadSubscribeSpotsReq))

	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)
	require.Eventually(t, func() bool { return s.Spots().Subscribed("2") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, v.count(openapi.PayloadSubscribeSpotsReq))

	push(v, "", openapi.SpotEvent{SymbolID: 2, Bid: price(200012), Ask: price(200020)}, openapi.PayloadSpotEvent)
	q := nextQuote(t, quotes)
	assert.True(t, q.Bid.Equal(decimal.RequireFromString("2.00012")))
}

func TestSpotReplayAfterReconnect(t *testing.T) {
	v := newFakeVendor()
	s := newTestSession(t, v, testCreds())
	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)

	h, quotes := quoteCollector()
	_, err := s.SubscribeSpots(context.Background(), 1, h)
	require.NoError(t, err)
	push(v, "", openapi.SpotEvent{SymbolID: 1, Bid: price(110000), Ask: price(110010)}, openapi.PayloadSpotEvent)
	nextQuote(t, quotes)

	v.ep.Drop(errors.New("network down"))
	waitState(t, s, Disconnected)
	assert.False(t, s.Spots().Subscribed("1"))
	assert.Equal(t, 1, s.Spots().Listeners("1"))

	require.NoError(t, s.Reconnect())
	waitState(t, s, AccountAuthorized)
	require.Eventually(t, func() bool { return s.Spots().Subscribed("1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, v.count(openapi.PayloadSubscribeSpotsReq))

	// 断线清空了上次报价
	push(v, "", openapi.SpotEvent{SymbolID: 1, Ask: price(110020)}, openapi.PayloadSpotEvent)
	q := nextQuote(t, quotes)
	assert.True(t, q.Bid.IsZero())
	assert.True(t, q.Ask.Equal(decimal.RequireFromString("1.1002")))
}
