package httpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bitly/go-simplejson"
	jsoniter "github.com/json-iterator/go"
)

// Redefining the standard package
var Json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewJSON(data []byte) (j *simplejson.Json, err error) {
	j, err = simplejson.NewJson(data)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// NewClient initialize an API client instance.
func NewClient(ops ...Option) (*Client, error) {
	opts := &options{
		httpClient: &http.Client{},
		userAgent:  "rtbridge",
	}
	for _, o := range ops {
		o(opts)
	}
	if opts.proxyUrl != "" {
		proxy, err := url.Parse(opts.proxyUrl)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		opts.httpClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(proxy),
		}
	}
	if opts.timeout > 0 {
		opts.httpClient.Timeout = opts.timeout
	}
	return &Client{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		opts:    opts,
	}, nil
}

// APIError define API error when response status is 4xx or 5xx
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error return error code and message
func (e *APIError) Error() string {
	return fmt.Sprintf("<APIError> status=%d, code=%s, msg=%s", e.StatusCode, e.Code, e.Message)
}

// IsAPIError check if e is an API error
func IsAPIError(e error) bool {
	_, ok := e.(*APIError)
	return ok
}

type doFunc func(req *http.Request) (*http.Response, error)

// Client define API client
type Client struct {
	baseURL string
	opts    *options
	do      doFunc
}

func (c *Client) parseRequest(r *Request, opts ...RequestOption) (err error) {
	// set request options from user
	for _, opt := range opts {
		opt(r)
	}
	err = r.validate()
	if err != nil {
		return err
	}

	fullURL := r.Endpoint
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = fmt.Sprintf("%s%s", c.baseURL, r.Endpoint)
	}
	queryString := r.query.Encode()
	var body io.Reader
	header := http.Header{}
	if r.header != nil {
		header = r.header.Clone()
	}
	switch {
	case r.jsonBody != nil:
		header.Set("Content-Type", "application/json")
		body = bytes.NewReader(r.jsonBody)
	case len(r.form) > 0:
		header.Set("Content-Type", "application/x-www-form-urlencoded")
		body = strings.NewReader(r.form.Encode())
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", c.opts.userAgent)
	}
	if queryString != "" {
		fullURL = fmt.Sprintf("%s?%s", fullURL, queryString)
	}

	r.fullURL = fullURL
	r.header = header
	r.body = body
	return nil
}

func (c *Client) CallAPI(ctx context.Context, r *Request, opts ...RequestOption) (data []byte, err error) {
	err = c.parseRequest(r, opts...)
	if err != nil {
		return []byte{}, err
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.fullURL, r.body)
	if err != nil {
		return []byte{}, err
	}
	req.Header = r.header
	f := c.do
	if f == nil {
		f = c.opts.httpClient.Do
	}
	res, err := f(req)
	if err != nil {
		return []byte{}, err
	}
	defer func() {
		cerr := res.Body.Close()
		// Only overwrite the retured error if the original error was nil and an
		// error occurred while closing the body.
		if err == nil && cerr != nil {
			err = cerr
		}
	}()
	data, err = io.ReadAll(res.Body)
	if err != nil {
		return []byte{}, err
	}

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if e := Json.Unmarshal(data, apiErr); e != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	return data, nil
}

// CallJSON 请求并把响应解析为动态 json
func (c *Client) CallJSON(ctx context.Context, r *Request, opts ...RequestOption) (*simplejson.Json, error) {
	data, err := c.CallAPI(ctx, r, opts...)
	if err != nil {
		return nil, err
	}
	return NewJSON(data)
}

// SetApiEndpoint set api Endpoint
func (c *Client) SetApiEndpoint(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}
