// Package errs 定义桥接层的错误分类, 基于 kratos errors (code + reason).
package errs

import (
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonConnection = "CONNECTION"
	ReasonAuth       = "AUTH"
	ReasonTimeout    = "TIMEOUT"
	ReasonProtocol   = "PROTOCOL"
	ReasonNotFound   = "NOT_FOUND"
	ReasonVendor     = "VENDOR"

	// MetadataVendorCode 交易商返回的原始错误码
	MetadataVendorCode = "errorCode"
)

var (
	// 哨兵错误, errors.Is 只比较 code 和 reason
	ErrConnection = errors.New(503, ReasonConnection, "connection error")
	ErrAuth       = errors.New(401, ReasonAuth, "auth error")
	ErrTimeout    = errors.New(504, ReasonTimeout, "timeout")
	ErrProtocol   = errors.New(502, ReasonProtocol, "protocol error")
	ErrNotFound   = errors.New(404, ReasonNotFound, "not found")
)

// 认证过期或失效的错误码
var authCodes = map[string]struct{}{
	"CH_ACCESS_TOKEN_INVALID": {},
	"OA_AUTH_TOKEN_EXPIRED":   {},
	"CH_CLIENT_AUTH_FAILURE":  {},
}

func Connection(format string, a ...interface{}) *errors.Error {
	return errors.New(503, ReasonConnection, fmt.Sprintf(format, a...))
}

func Auth(format string, a ...interface{}) *errors.Error {
	return errors.New(401, ReasonAuth, fmt.Sprintf(format, a...))
}

func Timeout(format string, a ...interface{}) *errors.Error {
	return errors.New(504, ReasonTimeout, fmt.Sprintf(format, a...))
}

func Protocol(format string, a ...interface{}) *errors.Error {
	return errors.New(502, ReasonProtocol, fmt.Sprintf(format, a...))
}

func NotFound(format string, a ...interface{}) *errors.Error {
	return errors.New(404, ReasonNotFound, fmt.Sprintf(format, a...))
}

// FromVendor 将交易商错误码映射到错误分类
func FromVendor(code, description string) *errors.Error {
	var e *errors.Error
	switch {
	case IsAuthCode(code):
		e = Auth("%s: %s", code, description)
	case strings.HasSuffix(code, "NOT_FOUND"):
		e = NotFound("%s: %s", code, description)
	default:
		e = errors.New(502, ReasonVendor, fmt.Sprintf("%s: %s", code, description))
	}
	return e.WithMetadata(map[string]string{MetadataVendorCode: code})
}

func IsAuthCode(code string) bool {
	_, ok := authCodes[code]
	return ok
}

func IsConnection(err error) bool { return errors.Reason(err) == ReasonConnection }
func IsAuth(err error) bool       { return errors.Reason(err) == ReasonAuth }
func IsTimeout(err error) bool    { return errors.Reason(err) == ReasonTimeout }
func IsProtocol(err error) bool   { return errors.Reason(err) == ReasonProtocol }
func IsNotFound(err error) bool   { return errors.Reason(err) == ReasonNotFound }

// VendorCode 返回错误携带的交易商错误码, 没有则为空
func VendorCode(err error) string {
	e := errors.FromError(err)
	if e == nil || e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataVendorCode]
}
