// Package openapi 交易商 Open API 的 JSON 消息格式.
// 每帧为一个信封 {clientMsgId, payloadType, payload}, clientMsgId 用于请求与响应配对.
package openapi

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"

	"github.com/go-gotop/rtbridge/errs"
)

// Json 替换标准库
var Json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message 消息信封
type Message struct {
	ClientMsgID string          `json:"clientMsgId,omitempty"`
	PayloadType PayloadType     `json:"payloadType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Encode 打包消息, clientMsgID 为空表示不需要配对
func Encode(clientMsgID string, p Payload) ([]byte, error) {
	raw, err := Json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return Json.Marshal(&Message{
		ClientMsgID: clientMsgID,
		PayloadType: p.PayloadType(),
		Payload:     raw,
	})
}

// Decode 解析信封, 格式错误返回 ProtocolError
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	if err := Json.Unmarshal(data, m); err != nil {
		return nil, errs.Protocol("decode message: %v", err)
	}
	if m.PayloadType == 0 {
		return nil, errs.Protocol("message without payloadType")
	}
	return m, nil
}

// Extract 解析消息体
func (m *Message) Extract(out interface{}) error {
	if out == nil || len(m.Payload) == 0 {
		return nil
	}
	if err := Json.Unmarshal(m.Payload, out); err != nil {
		return errs.Protocol("decode %s: %v", m.PayloadType, err)
	}
	return nil
}

// Err 如果是 ErrorRes 则返回分类后的错误
func (m *Message) Err() error {
	if m.PayloadType != PayloadErrorRes {
		return nil
	}
	res := &ErrorRes{}
	if err := m.Extract(res); err != nil {
		return err
	}
	return errs.FromVendor(res.ErrorCode, res.Description)
}

// Expect 校验响应类型并解析
func (m *Message) Expect(pt PayloadType, out interface{}) error {
	if err := m.Err(); err != nil {
		return err
	}
	if m.PayloadType != pt {
		return errs.Protocol("unexpected payload %s, want %s", m.PayloadType, pt)
	}
	return m.Extract(out)
}
