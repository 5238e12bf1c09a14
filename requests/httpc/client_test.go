package httpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallAPIJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("v"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t0", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"username":"u"}`, string(body))
		w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	c, err := NewClient(BaseUrl(srv.URL + "/"))
	require.NoError(t, err)

	r := &Request{Method: http.MethodPost, Endpoint: "/auth"}
	r.SetParam("v", 1).SetJSONBody(map[string]string{"username": "u"})
	js, err := c.CallJSON(context.Background(), r, WithBearer("t0"))
	require.NoError(t, err)
	assert.Equal(t, "abc", js.Get("token").MustString())
}

func TestCallAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"INVALID","message":"bad password"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down\n"))
		}
	}))
	defer srv.Close()

	c, err := NewClient(BaseUrl(srv.URL))
	require.NoError(t, err)

	_, err = c.CallAPI(context.Background(), &Request{Endpoint: "/json"})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	apiErr := err.(*APIError)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "INVALID", apiErr.Code)
	assert.Equal(t, "bad password", apiErr.Message)

	_, err = c.CallAPI(context.Background(), &Request{Endpoint: "/text"})
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.(*APIError).Message)
}

func TestAbsoluteEndpointIgnoresBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(BaseUrl("http://127.0.0.1:1"))
	require.NoError(t, err)
	_, err = c.CallAPI(context.Background(), &Request{Endpoint: srv.URL + "/me"})
	assert.NoError(t, err)
}

func TestBadProxyURL(t *testing.T) {
	_, err := NewClient(ProxyURL("://bad"))
	assert.Error(t, err)
}
