package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/go-gotop/rtbridge/errs"
	mklimiter "github.com/go-gotop/rtbridge/limiter/mocks"
	"github.com/go-gotop/rtbridge/openapi"
)

func TestAuthErrorTriggersRefresh(t *testing.T) {
	v := newFakeVendor()
	v.setValidToken("access-2")
	store := &memStore{}
	rec := &stateRecorder{}
	s := newTestSession(t, v, testCreds(), WithCredentialStore(store), WithStateListener(rec.record))

	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)
	require.Eventually(t, func() bool { return !s.Status().Refreshing }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, v.count(openapi.PayloadRefreshTokenReq))
	assert.Equal(t, [][2]string{{"access-2", "refresh-2"}}, store.Saved())
	creds := s.Credentials()
	assert.Equal(t, "access-2", creds.AccessToken)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
	assert.NoError(t, s.Status().Err)

	req := &openapi.RefreshTokenReq{}
	require.NoError(t, v.last(openapi.PayloadRefreshTokenReq).Extract(req))
	assert.Equal(t, "refresh-1", req.RefreshToken)

	auth := &openapi.AccountAuthReq{}
	require.NoError(t, v.last(openapi.PayloadAccountAuthReq).Extract(auth))
	assert.Equal(t, "access-2", auth.AccessToken)
	assert.Equal(t, testAccount, auth.CtidTraderAccountID)
}

func TestRefreshBeforeAccountPicked(t *testing.T) {
	v := newFakeVendor()
	v.setValidToken("access-2")
	v.setCheckList()
	creds := testCreds()
	creds.AccountID = 0
	s := newTestSession(t, v, creds)

	require.NoError(t, s.Start())
	waitState(t, s, AccountAuthorized)

	assert.Equal(t, 1, v.count(openapi.PayloadRefreshTokenReq))
	assert.Equal(t, 2, v.count(openapi.PayloadGetAccountsByAccessTokenReq))
	assert.Equal(t, 1, v.count(openapi.PayloadAccountAuthReq))

	list := &openapi.GetAccountListByAccessTokenReq{}
	require.NoError(t, v.last(openapi.PayloadGetAccountsByAccessTokenReq).Extract(list))
	assert.Equal(t, "access-2", list.AccessToken)

	auth := &openapi.AccountAuthReq{}
	require.NoError(t, v.last(openapi.PayloadAccountAuthReq).Extract(auth))
	assert.Equal(t, testAccount, auth.CtidTraderAccountID)
	assert.Equal(t, "access-2", auth.AccessToken)
	assert.Equal(t, testAccount, s.Credentials().AccountID)
}

func TestRefreshCoalesced(t *testing.T) {
	v := newFakeVendor()
	v.setValidToken("access-2")
	v.setSilent(openapi.PayloadRefreshTokenReq, true)
	s := newTestSession(t, v, testCreds(), WithRequestTimeout(5*time.Second))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return v.count(openapi.PayloadRefreshTokenReq) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Status().Refreshing)

	for i := 0; i < 3; i++ {
		push(v, "", openapi.AccountsTokenInvalidatedEvent{CtidTraderAccountIDs: []int64{testAccount}, Reason: "expired"}, openapi.PayloadAccountsTokenInvalidatedEvent)
		push(v, "", openapi.ErrorRes{ErrorCode: "OA_AUTH_TOKEN_EXPIRED"}, openapi.PayloadErrorRes)
	}
	flushEvents(t, s, v)
	assert.Equal(t, 1, v.count(openapi.PayloadRefreshTokenReq))

	pending := v.last(openapi.PayloadRefreshTokenReq)
	push(v, pending.ClientMsgID, openapi.RefreshTokenRes{AccessToken: "access-2", RefreshToken: "refresh-2"}, openapi.PayloadRefreshTokenRes)
	waitState(t, s, AccountAuthorized)
	require.Eventually(t, func() bool { return !s.Status().Refreshing }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, v.count(openapi.PayloadRefreshTokenReq))
}

func TestRefreshFailureFlagsError(t *testing.T) {
	v := newFakeVendor()
	v.setValidToken("access-2")
	v.setFail(openapi.PayloadRefreshTokenReq, "OA_AUTH_TOKEN_EXPIRED")
	store := &memStore{}
	s := newTestSession(t, v, testCreds(), WithCredentialStore(store))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool {
		st := s.Status()
		return st.Err != nil && !st.Refreshing
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, errs.IsAuth(s.Status().Err), "got %v", s.Status().Err)
	assert.Equal(t, AppAuthorized, s.State())
	assert.Equal(t, 1, v.count(openapi.PayloadRefreshTokenReq))
	assert.Empty(t, store.Saved())
	assert.Equal(t, "access-1", s.Credentials().AccessToken)
}

func TestRefreshRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	lim := mklimiter.NewMockLimiter(ctrl)
	lim.EXPECT().RefreshAllow().Return(false).MinTimes(1)

	v := newFakeVendor()
	v.setValidToken("access-2")
	s := newTestSession(t, v, testCreds(), WithLimiter(lim))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.Status().Err != nil }, time.Second, 5*time.Millisecond)

	assert.True(t, errs.IsAuth(s.Status().Err))
	assert.False(t, s.Status().Refreshing)
	assert.Equal(t, 0, v.count(openapi.PayloadRefreshTokenReq))
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	v := newFakeVendor()
	v.setValidToken("access-2")
	creds := testCreds()
	creds.RefreshToken = ""
	s := newTestSession(t, v, creds)

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.Status().Err != nil }, time.Second, 5*time.Millisecond)
	assert.True(t, errs.IsAuth(s.Status().Err))
	assert.Equal(t, 0, v.count(openapi.PayloadRefreshTokenReq))
}

func TestClientAuthFailureNotRefreshed(t *testing.T) {
	v := newFakeVendor()
	v.setFail(openapi.PayloadApplicationAuthReq, "CH_CLIENT_AUTH_FAILURE")
	s := newTestSession(t, v, testCreds())

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.Status().Err != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "CH_CLIENT_AUTH_FAILURE", errs.VendorCode(s.Status().Err))
	assert.Equal(t, Connected, s.State())
	assert.Equal(t, 0, v.count(openapi.PayloadRefreshTokenReq))
}
