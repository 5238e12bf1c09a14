package session

import (
	"context"

	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/openapi"
)

// CredentialStore 持久化刷新后的凭证
type CredentialStore interface {
	SaveTokens(accessToken, refreshToken string) error
}

// triggerRefresh 刷新进行中的触发合并到当前刷新, 超过限流的触发直接丢弃
func (s *Session) triggerRefresh(reason error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.logger.Debugf("refresh in flight, coalesce: %v", reason)
		return
	}
	if s.opts.limiter != nil && !s.opts.limiter.RefreshAllow() {
		s.refreshing.Store(false)
		s.machine.flag(errs.Auth("token refresh rate limited: %v", reason))
		return
	}
	s.logger.Infof("refresh token: %v", reason)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.refreshing.Store(false)
		if err := s.refresh(s.ctx); err != nil {
			s.machine.flag(err)
		}
	}()
}

// refresh 只尝试一次, 失败不重试
func (s *Session) refresh(ctx context.Context) error {
	creds := s.Credentials()
	if creds.RefreshToken == "" {
		return errs.Auth("no refresh token")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.requestTimeout)
	defer cancel()

	msg, err := s.Request(ctx, openapi.RefreshTokenReq{RefreshToken: creds.RefreshToken}, s.opts.requestTimeout)
	if err != nil {
		return err
	}
	res := &openapi.RefreshTokenRes{}
	if err := msg.Expect(openapi.PayloadRefreshTokenRes, res); err != nil {
		return err
	}
	if res.AccessToken == "" {
		return errs.Protocol("refresh token response without access token")
	}
	s.setTokens(res.AccessToken, res.RefreshToken)
	creds = s.Credentials()

	// 持久化失败不影响本次会话
	if s.opts.store != nil {
		if err := s.opts.store.SaveTokens(creds.AccessToken, creds.RefreshToken); err != nil {
			s.logger.Errorf("persist refreshed tokens error: %v", err)
		}
	}

	return s.bridge.Post(func() {
		if s.machine.current() < AppAuthorized {
			// 已断线, 重连后使用新凭证
			return
		}
		if creds.AccountID == 0 {
			// 还没有选定账户, 用新凭证重新拉取账户列表
			s.write(openapi.GetAccountListByAccessTokenReq{AccessToken: creds.AccessToken})
			return
		}
		s.write(openapi.AccountAuthReq{
			CtidTraderAccountID: creds.AccountID,
			AccessToken:         creds.AccessToken,
		})
	})
}
