package httpc

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Params map[string]interface{}

// Request define an API request
type Request struct {
	Method   string
	Endpoint string
	query    url.Values
	form     url.Values
	jsonBody []byte
	header   http.Header
	body     io.Reader
	fullURL  string
	err      error
}

// SetParam set param with key/value to query string
func (r *Request) SetParam(key string, value interface{}) *Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, fmt.Sprintf("%v", value))
	return r
}

// SetParams set params with key/values to query string
func (r *Request) SetParams(m Params) *Request {
	for k, v := range m {
		r.SetParam(k, v)
	}
	return r
}

// SetFormParam set param with key/value to request form body
func (r *Request) SetFormParam(key string, value interface{}) *Request {
	if r.form == nil {
		r.form = url.Values{}
	}
	r.form.Set(key, fmt.Sprintf("%v", value))
	return r
}

// SetJSONBody 请求体序列化为 json, 优先于表单
func (r *Request) SetJSONBody(v interface{}) *Request {
	b, err := Json.Marshal(v)
	if err != nil {
		r.err = err
		return r
	}
	r.jsonBody = b
	return r
}

func (r *Request) validate() (err error) {
	if r.err != nil {
		return r.err
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.query == nil {
		r.query = url.Values{}
	}
	if r.form == nil {
		r.form = url.Values{}
	}
	return nil
}

// RequestOption define option type for request
type RequestOption func(*Request)

// WithHeader set or add a header value to the request
func WithHeader(key, value string, replace bool) RequestOption {
	return func(r *Request) {
		if r.header == nil {
			r.header = http.Header{}
		}
		if replace {
			r.header.Set(key, value)
		} else {
			r.header.Add(key, value)
		}
	}
}

// WithBearer 设置 Authorization: Bearer
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token, true)
}

// WithHeaders set or replace the headers of the request
func WithHeaders(header http.Header) RequestOption {
	return func(r *Request) {
		r.header = header.Clone()
	}
}
