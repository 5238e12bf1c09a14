package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-gotop/rtbridge/errs"
	"github.com/go-gotop/rtbridge/requests/httpc"
)

const (
	DefaultAPIBaseURL = "https://api.dnse.com.vn"
	AuthPath          = "/user-service/api/auth"
	UserInfoPath      = "/user-service/api/me"
)

// Credentials mqtt 用户名为 investorId, 密码为登录 token
type Credentials struct {
	InvestorID string
	Token      string
}

// Authenticate 登录并查询 investorId
func Authenticate(ctx context.Context, client *httpc.Client, username, password string) (*Credentials, error) {
	if username == "" || password == "" {
		return nil, errs.Auth("dnse credentials missing")
	}
	r := &httpc.Request{Method: http.MethodPost, Endpoint: AuthPath}
	r.SetJSONBody(map[string]string{"username": username, "password": password})
	js, err := client.CallJSON(ctx, r)
	if err != nil {
		return nil, authError("login", err)
	}
	token := js.Get("token").MustString()
	if token == "" {
		return nil, errs.Auth("dnse login returned no token")
	}

	me, err := client.CallJSON(ctx, &httpc.Request{Method: http.MethodGet, Endpoint: UserInfoPath}, httpc.WithBearer(token))
	if err != nil {
		return nil, authError("user info", err)
	}
	id, ok := me.CheckGet("investorId")
	if !ok || id.Interface() == nil {
		return nil, errs.Protocol("dnse user info has no investorId")
	}
	return &Credentials{
		InvestorID: fmt.Sprint(id.Interface()),
		Token:      token,
	}, nil
}

func authError(step string, err error) error {
	var apiErr *httpc.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return errs.Auth("dnse %s: %v", step, err)
	}
	return errs.Connection("dnse %s: %v", step, err)
}
