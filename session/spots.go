package session

import (
	"context"
	"strconv"

	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/openapi"
)

// spotUpstream topic 为 symbolId
type spotUpstream struct {
	s *Session
}

func (u *spotUpstream) Subscribe(ctx context.Context, topic string) error {
	id, accountID, err := u.prepare(topic)
	if err != nil {
		return err
	}
	msg, err := u.s.Request(ctx, openapi.SubscribeSpotsReq{
		CtidTraderAccountID: accountID,
		SymbolID:            []int64{id},
	}, 0)
	if err != nil {
		return err
	}
	return msg.Expect(openapi.PayloadSubscribeSpotsRes, nil)
}

func (u *spotUpstream) Unsubscribe(ctx context.Context, topic string) error {
	id, accountID, err := u.prepare(topic)
	if err != nil {
		return err
	}
	msg, err := u.s.Request(ctx, openapi.UnsubscribeSpotsReq{
		CtidTraderAccountID: accountID,
		SymbolID:            []int64{id},
	}, 0)
	if err != nil {
		return err
	}
	return msg.Expect(openapi.PayloadUnsubscribeSpotsRes, nil)
}

func (u *spotUpstream) prepare(topic string) (int64, int64, error) {
	id, err := strconv.ParseInt(topic, 10, 64)
	if err != nil {
		return 0, 0, errs.NotFound("invalid symbol id %q", topic)
	}
	accountID, err := u.s.requireAccount()
	if err != nil {
		return 0, 0, err
	}
	return id, accountID, nil
}

// SubscribeSpots 订阅报价, 未授权时先登记, 授权完成后自动订阅
func (s *Session) SubscribeSpots(ctx context.Context, symbolID int64, h broker.Handler) (*broker.Subscription, error) {
	return s.spots.Subscribe(ctx, strconv.FormatInt(symbolID, 10), h)
}
