package httpc

import (
	"net/http"
	"time"
)

type Option func(o *options)

type options struct {
	baseURL    string
	proxyUrl   string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

func BaseUrl(b string) Option {
	return func(o *options) { o.baseURL = b }
}

func ProxyURL(p string) Option {
	return func(o *options) { o.proxyUrl = p }
}

func HttpClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

func UserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func Timeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}
