package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/broker"
)

const (
	DefaultBrokerURL = "wss://datafeed-lts-krx.dnse.com.vn:443/wss"
	// TopicTick 逐笔成交
	TopicTick = "plaintext/quotes/krx/mdds/tick/v1/roundlot/symbol/%s"
)

type Option func(*options)

type options struct {
	logger        log.Logger
	brokerURL     string
	topicFormat   string
	qos           byte
	timeout       time.Duration
	keepAlive     time.Duration
	clientFactory func(*paho.ClientOptions) paho.Client
	registryOpts  []broker.Option
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithBrokerURL(url string) Option {
	return func(o *options) {
		o.brokerURL = url
	}
}

// WithTopicFormat topic 模板, %s 为标的
func WithTopicFormat(format string) Option {
	return func(o *options) {
		o.topicFormat = format
	}
}

func WithQos(qos byte) Option {
	return func(o *options) {
		o.qos = qos
	}
}

// WithTimeout 连接与订阅等待超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		o.keepAlive = d
	}
}

func WithClientFactory(f func(*paho.ClientOptions) paho.Client) Option {
	return func(o *options) {
		o.clientFactory = f
	}
}

func WithRegistryOptions(opts ...broker.Option) Option {
	return func(o *options) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}
