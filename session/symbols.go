package session

import (
	"context"

	"github.com/go-gotop/rtbridge/openapi"
)

// SymbolDetails 品种详情, 已缓存的不再请求, 交易商没有返回的 id 直接跳过
func (s *Session) SymbolDetails(ctx context.Context, ids []int64) ([]openapi.Symbol, error) {
	return s.details.Resolve(ctx, ids)
}

func (s *Session) fetchSymbols(ctx context.Context, ids []int64) (map[int64]openapi.Symbol, error) {
	accountID, err := s.requireAccount()
	if err != nil {
		return nil, err
	}
	msg, err := s.Request(ctx, openapi.SymbolByIDReq{
		CtidTraderAccountID: accountID,
		SymbolID:            ids,
	}, 0)
	if err != nil {
		return nil, err
	}
	res := &openapi.SymbolByIDRes{}
	if err := msg.Expect(openapi.PayloadSymbolByIDRes, res); err != nil {
		return nil, err
	}
	out := make(map[int64]openapi.Symbol, len(res.Symbol))
	for _, sym := range res.Symbol {
		out[sym.SymbolID] = sym
	}
	return out, nil
}

// RefreshSymbols 重新拉取品种列表
func (s *Session) RefreshSymbols(ctx context.Context) ([]openapi.LightSymbol, error) {
	accountID, err := s.requireAccount()
	if err != nil {
		return nil, err
	}
	msg, err := s.Request(ctx, openapi.SymbolsListReq{CtidTraderAccountID: accountID}, 0)
	if err != nil {
		return nil, err
	}
	res := &openapi.SymbolsListRes{}
	if err := msg.Expect(openapi.PayloadSymbolsListRes, res); err != nil {
		return nil, err
	}
	s.setSymbols(res.Symbol)
	return s.Symbols(), nil
}
