package exchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// QuoteEvent 买一卖一报价
type QuoteEvent struct {
	// Symbol 标的, cTrader 为 symbolId 字符串
	Symbol string
	// Exchange 来源
	Exchange string
	Bid      decimal.Decimal
	Ask      decimal.Decimal
	// Timestamp 毫秒, 交易商未给出时为 0
	Timestamp int64
}

// TradeEvent 逐笔成交
type TradeEvent struct {
	Symbol    string
	Exchange  string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Value     decimal.Decimal
	Side      string
	SendingAt string
	// TradedAt 毫秒, 解析不了 SendingAt 时为接收时间
	TradedAt int64
}

// IsBuy 主动买入, 交易商可能给出 B 或 BUY
func (t *TradeEvent) IsBuy() bool {
	return strings.EqualFold(t.Side, "B") || strings.EqualFold(t.Side, "BUY")
}
