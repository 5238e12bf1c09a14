package exchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Period m1, m5, m15, m30, h1, h4, d1, w1
type Period string

// Global enums
const (
	CTraderExchange = "CTRADER"
	DNSEExchange    = "DNSE"

	PeriodM1  Period = "m1"
	PeriodM5  Period = "m5"
	PeriodM15 Period = "m15"
	PeriodM30 Period = "m30"
	PeriodH1  Period = "h1"
	PeriodH4  Period = "h4"
	PeriodD1  Period = "d1"
	PeriodW1  Period = "w1"
)

var periods = map[Period]struct{}{
	PeriodM1:  {},
	PeriodM5:  {},
	PeriodM15: {},
	PeriodM30: {},
	PeriodH1:  {},
	PeriodH4:  {},
	PeriodD1:  {},
	PeriodW1:  {},
}

// ParsePeriod 不区分大小写, 不认识的周期按 h1 处理
func ParsePeriod(s string) Period {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := periods[p]; ok {
		return p
	}
	return PeriodH1
}

// Candle K线, Time 为秒级时间戳
type Candle struct {
	Time   int64
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// ScalePrice 交易商整数价格按小数位还原
func ScalePrice(raw int64, digits int32) decimal.Decimal {
	return decimal.New(raw, -digits)
}
