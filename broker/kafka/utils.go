package kafka

import (
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/go-gotop/rtbridge/broker"
)

const (
	HeaderSource     = "source"
	HeaderTopic      = "topic"
	HeaderReceivedAt = "received_at"
)

func kafkaHeaderToMap(h []kafkaGo.Header) broker.Headers {
	m := broker.Headers{}
	for _, v := range h {
		m[v.Key] = string(v.Value)
	}
	return m
}

func eventHeaders(evt broker.Event) []kafkaGo.Header {
	return []kafkaGo.Header{
		{Key: HeaderSource, Value: []byte(evt.Source)},
		{Key: HeaderTopic, Value: []byte(evt.Topic)},
		{Key: HeaderReceivedAt, Value: []byte(evt.Time.UTC().Format(time.RFC3339Nano))},
	}
}

// FromMessage 还原转发出去的事件, Payload 为空, 内容在 Raw
func FromMessage(msg kafkaGo.Message) (broker.Event, broker.Headers) {
	h := kafkaHeaderToMap(msg.Headers)
	evt := broker.Event{
		Topic:  h[HeaderTopic],
		Source: h[HeaderSource],
		Raw:    msg.Value,
		Time:   msg.Time,
	}
	if evt.Topic == "" {
		evt.Topic = string(msg.Key)
	}
	if t, err := time.Parse(time.RFC3339Nano, h[HeaderReceivedAt]); err == nil {
		evt.Time = t
	}
	return evt, h
}
