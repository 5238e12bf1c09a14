package broker

import (
	"context"
	"time"

	"github.com/bitly/go-simplejson"
	jsoniter "github.com/json-iterator/go"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

type Headers map[string]string

// Event 推送到订阅者的事件, Payload 为解析后的值, Raw 为原始报文 (可能为空)
type Event struct {
	Topic   string
	Source  string
	Payload interface{}
	Raw     []byte
	Time    time.Time
}

// Bytes 原始报文, 没有时序列化 Payload
func (e Event) Bytes() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return Json.Marshal(e.Payload)
}

// JSON 以动态 json 方式访问事件内容
func (e Event) JSON() (*simplejson.Json, error) {
	b, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	return simplejson.NewJson(b)
}

type Handler func(ctx context.Context, evt Event) error

// Upstream 上游的订阅动作, 需要可重复调用
type Upstream interface {
	Subscribe(ctx context.Context, topic string) error
	Unsubscribe(ctx context.Context, topic string) error
}
