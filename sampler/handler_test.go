package sampler_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/sampler"
	"github.com/go-gotop/rtbridge/sampler/bytime"
)

func tradeEvent(symbol string, at int64, price int64) broker.Event {
	return broker.Event{
		Topic:  symbol,
		Source: exchange.DNSEExchange,
		Payload: exchange.TradeEvent{
			Symbol:   symbol,
			Price:    decimal.NewFromInt(price),
			Size:     decimal.NewFromInt(1),
			Side:     "B",
			TradedAt: at,
		},
	}
}

func TestHandler(t *testing.T) {
	var got []broker.Event
	next := func(ctx context.Context, evt broker.Event) error {
		got = append(got, evt)
		return nil
	}
	h := sampler.Handler(func() sampler.Sampler { return bytime.NewByTime(1000) }, next)
	ctx := context.Background()

	require.NoError(t, h(ctx, tradeEvent("VNM", 100, 10)))
	require.NoError(t, h(ctx, tradeEvent("HPG", 200, 20)))
	require.NoError(t, h(ctx, tradeEvent("VNM", 900, 11)))
	assert.Empty(t, got)

	// 每个 topic 独立窗口
	require.NoError(t, h(ctx, tradeEvent("VNM", 1000, 12)))
	require.Len(t, got, 1)
	agg := got[0].Payload.(*sampler.AggregatedTrade)
	assert.Equal(t, "VNM", got[0].Topic)
	assert.Equal(t, uint64(2), agg.BuyCount)
	assert.True(t, agg.ClosePrice.Price.Equal(decimal.NewFromInt(11)))

	// 非成交事件透传
	require.NoError(t, h(ctx, broker.Event{Topic: "1", Payload: exchange.QuoteEvent{Symbol: "1"}}))
	require.Len(t, got, 2)
	assert.IsType(t, exchange.QuoteEvent{}, got[1].Payload)
}
