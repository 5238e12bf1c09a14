package session

import (
	"context"
	"time"

	"github.com/go-gotop/rtbridge/exchange"
	"github.com/go-gotop/rtbridge/openapi"
)

var trendbarPeriods = map[exchange.Period]openapi.TrendbarPeriod{
	exchange.PeriodM1:  openapi.PeriodM1,
	exchange.PeriodM5:  openapi.PeriodM5,
	exchange.PeriodM15: openapi.PeriodM15,
	exchange.PeriodM30: openapi.PeriodM30,
	exchange.PeriodH1:  openapi.PeriodH1,
	exchange.PeriodH4:  openapi.PeriodH4,
	exchange.PeriodD1:  openapi.PeriodD1,
	exchange.PeriodW1:  openapi.PeriodW1,
}

// Trendbars K线, 价格按品种小数位还原, 取不到品种详情时按 5 位处理
func (s *Session) Trendbars(ctx context.Context, symbolID int64, period string, from, to time.Time) ([]exchange.Candle, error) {
	accountID, err := s.requireAccount()
	if err != nil {
		return nil, err
	}

	digits := exchange.DefaultDigits
	details, err := s.SymbolDetails(ctx, []int64{symbolID})
	switch {
	case err != nil:
		s.logger.Warnf("symbol %d details error, use default digits: %v", symbolID, err)
	case len(details) == 0 || details[0].Digits <= 0:
		s.logger.Warnf("symbol %d digits unknown, use default", symbolID)
	default:
		digits = details[0].Digits
	}

	msg, err := s.Request(ctx, openapi.GetTrendbarsReq{
		CtidTraderAccountID: accountID,
		FromTimestamp:       from.UnixMilli(),
		ToTimestamp:         to.UnixMilli(),
		Period:              trendbarPeriods[exchange.ParsePeriod(period)],
		SymbolID:            symbolID,
	}, 0)
	if err != nil {
		return nil, err
	}
	res := &openapi.GetTrendbarsRes{}
	if err := msg.Expect(openapi.PayloadGetTrendbarsRes, res); err != nil {
		return nil, err
	}
	return reshapeTrendbars(res.Trendbar, digits), nil
}

// reshapeTrendbars open/high/close 为相对 low 的增量
func reshapeTrendbars(bars []openapi.Trendbar, digits int32) []exchange.Candle {
	out := make([]exchange.Candle, 0, len(bars))
	for _, b := range bars {
		out = append(out, exchange.Candle{
			Time:   b.UTCTimestampInMinutes * 60,
			Open:   exchange.ScalePrice(b.Low+deref(b.DeltaOpen), digits),
			High:   exchange.ScalePrice(b.Low+deref(b.DeltaHigh), digits),
			Low:    exchange.ScalePrice(b.Low, digits),
			Close:  exchange.ScalePrice(b.Low+deref(b.DeltaClose), digits),
			Volume: b.Volume,
		})
	}
	return out
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
