package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/exchange"
)

// Handler 每个 topic 一个 Sampler, 只把窗口聚合结果交给 next, 其它事件原样透传
func Handler(newSampler func() Sampler, next broker.Handler) broker.Handler {
	var mux sync.Mutex
	samplers := make(map[string]Sampler)

	return func(ctx context.Context, evt broker.Event) error {
		te, ok := evt.Payload.(exchange.TradeEvent)
		if !ok {
			return next(ctx, evt)
		}

		mux.Lock()
		s, ok := samplers[evt.Topic]
		if !ok {
			s = newSampler()
			samplers[evt.Topic] = s
		}
		agg := s.Sample(&te)
		mux.Unlock()

		if agg == nil {
			return nil
		}
		return next(ctx, broker.Event{
			Topic:   evt.Topic,
			Source:  evt.Source,
			Payload: agg,
			Time:    time.UnixMilli(agg.Timestamp),
		})
	}
}
