package bytime

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/exchange"
)

func trade(at int64, price, size float64, side string) *exchange.TradeEvent {
	return &exchange.TradeEvent{
		Symbol:   "VNM",
		Exchange: exchange.DNSEExchange,
		Price:    decimal.NewFromFloat(price),
		Size:     decimal.NewFromFloat(size),
		Side:     side,
		TradedAt: at,
	}
}

func TestTimestampMod(t *testing.T) {
	tt := []struct {
		t int64
		m int64
	}{
		{t: 1000, m: 100},
		{t: 1000, m: 1000},
		{t: 1000, m: 10000},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.t%tc.m, timestampMod(tc.t, tc.m))
	}
}

func TestToPrice(t *testing.T) {
	te := trade(1000, 65.2, 1, "B")
	pp := toPrice(te)
	assert.Equal(t, te.TradedAt, pp.Timestamp)
	assert.Equal(t, te.Price, pp.Price)
}

func TestSampleWindow(t *testing.T) {
	s := NewByTime(1000)

	assert.Nil(t, s.Sample(trade(10100, 65, 100, "B")))
	assert.Nil(t, s.Sample(trade(10300, 66, 50, "S")))
	assert.Nil(t, s.Sample(trade(10600, 64, 10, "buy")))
	assert.Nil(t, s.Sample(trade(10999, 65.5, 20, "S")))

	agg := s.Sample(trade(11000, 67, 1, "B"))
	require.NotNil(t, agg)
	assert.Equal(t, "VNM", agg.Symbol)
	assert.Equal(t, int64(10000), agg.Timestamp)
	assert.Equal(t, uint64(2), agg.BuyCount)
	assert.Equal(t, uint64(2), agg.SellCount)
	assert.True(t, agg.OpenPrice.Price.Equal(decimal.NewFromInt(65)))
	assert.True(t, agg.ClosePrice.Price.Equal(decimal.NewFromFloat(65.5)))
	assert.True(t, agg.HighestPrice.Price.Equal(decimal.NewFromInt(66)))
	assert.Equal(t, int64(10300), agg.HighestPrice.Timestamp)
	assert.True(t, agg.LowestPrice.Price.Equal(decimal.NewFromInt(64)))
	assert.True(t, agg.TotalBuySize.Equal(decimal.NewFromInt(110)))
	assert.True(t, agg.TotalSellSize.Equal(decimal.NewFromInt(70)))
	assert.True(t, agg.TotalBuyQuote.Equal(decimal.NewFromInt(6500+640)))

	// 先高后低, 下跌
	assert.False(t, agg.IsUp())
	assert.True(t, agg.Difference().Equal(decimal.NewFromInt(-2)))
	assert.False(t, agg.Equal())
}

func TestSampleUsesVendorValue(t *testing.T) {
	s := NewByTime(1000)
	te := trade(0, 10, 3, "B")
	te.Value = decimal.NewFromInt(31)
	s.Sample(te)
	agg := s.Sample(trade(1000, 10, 1, "B"))
	require.NotNil(t, agg)
	assert.True(t, agg.TotalBuyQuote.Equal(decimal.NewFromInt(31)))
	assert.True(t, agg.Equal())
}
