package bytime

import (
	"github.com/shopspring/decimal"

	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/sampler"
)

// NewByTime 按 ms 毫秒对齐的窗口聚合
func NewByTime(ms int64) sampler.Sampler {
	if ms <= 0 {
		ms = 1000
	}
	return &millisecond{
		ms: ms,
	}
}

func timestampMod(t int64, m int64) int64 {
	return t % m
}

func toPrice(te *exchange.TradeEvent) sampler.PricePoint {
	return sampler.PricePoint{
		Timestamp: te.TradedAt,
		Price:     te.Price,
	}
}

func toAgg(te *exchange.TradeEvent, ms int64) *sampler.AggregatedTrade {
	p := toPrice(te)
	agg := &sampler.AggregatedTrade{
		Symbol:       te.Symbol,
		Exchange:     te.Exchange,
		HighestPrice: p,
		LowestPrice:  p,
		OpenPrice:    p,
		ClosePrice:   p,
	}
	// 当前逐笔数据的时间戳减掉余数
	agg.Timestamp = te.TradedAt - timestampMod(te.TradedAt, ms)
	quote := tradeValue(te)
	if te.IsBuy() {
		agg.TotalBuyQuote = quote
		agg.TotalBuySize = te.Size
		agg.BuyCount = 1
	} else {
		agg.TotalSellQuote = quote
		agg.TotalSellSize = te.Size
		agg.SellCount = 1
	}
	return agg
}

// tradeValue 优先使用交易商给出的成交额
func tradeValue(te *exchange.TradeEvent) decimal.Decimal {
	if !te.Value.IsZero() {
		return te.Value
	}
	return te.Price.Mul(te.Size)
}

type millisecond struct {
	ms  int64
	agg *sampler.AggregatedTrade
}

func (m *millisecond) Sample(te *exchange.TradeEvent) (agg *sampler.AggregatedTrade) {
	if m.agg == nil {
		m.agg = toAgg(te, m.ms)
		return
	}
	if te.TradedAt >= m.agg.Timestamp+m.ms {
		agg = m.agg
		m.agg = toAgg(te, m.ms)
	} else {
		m.aggregate(te)
	}
	return
}

func (m *millisecond) aggregate(te *exchange.TradeEvent) {
	m.agg.ClosePrice = toPrice(te)
	quote := tradeValue(te)
	if te.IsBuy() {
		m.agg.BuyCount++
		m.agg.TotalBuyQuote = m.agg.TotalBuyQuote.Add(quote)
		m.agg.TotalBuySize = m.agg.TotalBuySize.Add(te.Size)
	} else {
		m.agg.SellCount++
		m.agg.TotalSellQuote = m.agg.TotalSellQuote.Add(quote)
		m.agg.TotalSellSize = m.agg.TotalSellSize.Add(te.Size)
	}
	if te.Price.GreaterThan(m.agg.HighestPrice.Price) {
		m.agg.HighestPrice = toPrice(te)
	}
	if te.Price.LessThan(m.agg.LowestPrice.Price) {
		m.agg.LowestPrice = toPrice(te)
	}
}
