// Package sampler 把逐笔成交按窗口聚合
package sampler

import (
	"github.com/shopspring/decimal"

	"github.com/go-gotop/rtbridge/exchange"
)

type PricePoint struct {
	Timestamp int64
	Price     decimal.Decimal
}

type AggregatedTrade struct {
	Symbol         string
	Exchange       string
	SellCount      uint64
	BuyCount       uint64
	Timestamp      int64
	OpenPrice      PricePoint
	ClosePrice     PricePoint
	HighestPrice   PricePoint
	LowestPrice    PricePoint
	TotalBuySize   decimal.Decimal
	TotalSellSize  decimal.Decimal
	TotalBuyQuote  decimal.Decimal
	TotalSellQuote decimal.Decimal
}

// PriceRange 按时间先后返回最高点和最低点
func (a *AggregatedTrade) PriceRange() (head PricePoint, tail PricePoint) {
	head = a.HighestPrice
	tail = a.LowestPrice
	if a.HighestPrice.Timestamp > a.LowestPrice.Timestamp {
		head = a.LowestPrice
		tail = a.HighestPrice
	}
	return
}

// Difference 窗口内后出现的极值减去先出现的极值
func (a *AggregatedTrade) Difference() decimal.Decimal {
	head, tail := a.PriceRange()
	return tail.Price.Sub(head.Price)
}

func (a *AggregatedTrade) IsUp() bool {
	head, tail := a.PriceRange()
	return tail.Price.GreaterThan(head.Price)
}

func (a *AggregatedTrade) Equal() bool {
	return a.HighestPrice.Price.Equal(a.LowestPrice.Price)
}

// Sampler 输入逐笔成交, 窗口结束时返回上一个窗口的聚合结果, 否则返回 nil.
// 实现不要求并发安全.
type Sampler interface {
	Sample(te *exchange.TradeEvent) *AggregatedTrade
}
