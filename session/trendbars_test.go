package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/openapi"
)

func TestReshapeTrendbars(t *testing.T) {
	bars := []openapi.Trendbar{
		{Volume: 10, Low: 200000, DeltaOpen: price(100), DeltaHigh: price(500), DeltaClose: price(300), UTCTimestampInMinutes: 28000000},
		{Volume: 3, Low: 199900, UTCTimestampInMinutes: 28000060},
	}
	candles := reshapeTrendbars(bars, 2)
	require.Len(t, candles, 2)

	c := candles[0]
	assert.Equal(t, int64(28000000*60), c.Time)
	assert.True(t, c.Low.Equal(decimal.RequireFromString("2000")))
	assert.True(t, c.Open.Equal(decimal.RequireFromString("2001")))
	assert.True(t, c.High.Equal(decimal.RequireFromString("2005")))
	assert.True(t, c.Close.Equal(decimal.RequireFromString("2003")))
	assert.Equal(t, int64(10), c.Volume)

	// 没有增量时等于 low
	c = candles[1]
	assert.True(t, c.Open.Equal(c.Low))
	assert.True(t, c.High.Equal(c.Low))
	assert.True(t, c.Close.Equal(decimal.RequireFromString("1999")))
}

func TestTrendbars(t *testing.T) {
	v := newFakeVendor()
	v.bars = []openapi.Trendbar{
		{Volume: 10, Low: 200000, DeltaHigh: price(500), UTCTimestampInMinutes: 28000000},
	}
	s := newTestSession(t, v, testCreds())
	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)

	from := time.UnixMilli(1680000000000)
	to := from.Add(time.Hour)
	candles, err := s.Trendbars(context.Background(), 2, "h1", from, to)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.True(t, candles[0].Low.Equal(decimal.RequireFromString("2000")))
	assert.True(t, candles[0].High.Equal(decimal.RequireFromString("2005")))

	req := &openapi.GetTrendbarsReq{}
	require.NoError(t, v.last(openapi.PayloadGetTrendbarsReq).Extract(req))
	assert.Equal(t, openapi.PeriodH1, req.Period)
	assert.Equal(t, from.UnixMilli(), req.FromTimestamp)
	assert.Equal(t, to.UnixMilli(), req.ToTimestamp)
	assert.Equal(t, testAccount, req.CtidTraderAccountID)

	// 未知品种和周期按默认处理
	candles, err = s.Trendbars(context.Background(), 99, "2h", from, to)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.True(t, candles[0].Low.Equal(decimal.RequireFromString("2")))
	require.NoError(t, v.last(openapi.PayloadGetTrendbarsReq).Extract(req))
	assert.Equal(t, openapi.PeriodH1, req.Period)
}
