// Package kafka 把订阅到的推送事件转发到 kafka.
package kafka

import (
	"context"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/rtbridge/broker"
)

// MessageWriter kafka-go Writer 的最小接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type Option func(*Forwarder)

func WithLogger(logger log.Logger) Option {
	return func(f *Forwarder) {
		f.logger = log.NewHelper(logger)
	}
}

// WithWriteTimeout 单次写入超时, 0 表示只受调用方 ctx 控制
func WithWriteTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		f.timeout = d
	}
}

func WithWriter(w MessageWriter) Option {
	return func(f *Forwarder) {
		f.writer = w
	}
}

// Forwarder 作为 broker.Handler 使用, key 为 topic 保证同一标的有序
type Forwarder struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  *log.Helper
}

func NewForwarder(brokers []string, topic string, opts ...Option) *Forwarder {
	f := &Forwarder{
		topic:   topic,
		timeout: 5 * time.Second,
		logger:  log.NewHelper(log.DefaultLogger),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.writer == nil {
		f.writer = &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkaGo.Hash{},
			RequiredAcks: kafkaGo.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Logger:       &Logger{logger: f.logger},
			ErrorLogger:  &ErrorLogger{logger: f.logger},
		}
	}
	return f
}

func (f *Forwarder) Topic() string {
	return f.topic
}

func (f *Forwarder) Handle(ctx context.Context, evt broker.Event) error {
	value, err := evt.Bytes()
	if err != nil {
		return err
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	err = f.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:     []byte(evt.Topic),
		Value:   value,
		Headers: eventHeaders(evt),
		Time:    evt.Time,
	})
	if err != nil {
		f.logger.Errorf("kafka forward %s to %s error: %v", evt.Topic, f.topic, err)
	}
	return err
}

func (f *Forwarder) Close() error {
	return f.writer.Close()
}
