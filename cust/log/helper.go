package center

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

const logExpire = 10 * 24 * time.Hour

type LogEntry struct {
	Service   string `json:"service"`
	Level     string `json:"level"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// redisClient RedisHandler 用到的命令
type redisClient interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisHandler 将日志以 RedisJSON 文档写入 redis, 按服务名检索
type RedisHandler struct {
	client      redisClient
	serviceName string
	timeout     time.Duration
}

// MultiLogger 依次写入所有 logger, 单个失败不影响其它
type MultiLogger struct {
	loggers []log.Logger
	closers []func() error
}

func newMultiLogger(loggers ...log.Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
	}
}

func (m *MultiLogger) Log(level log.Level, keyvals ...interface{}) error {
	var errs []error
	for _, logger := range m.loggers {
		if err := logger.Log(level, keyvals...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭 redis 连接
func (m *MultiLogger) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log 实现了log.Logger接口。
func (h *RedisHandler) Log(level log.Level, keyvals ...interface{}) error {
	var b strings.Builder
	b.WriteString("level=")
	b.WriteString(levelToString(level))
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, " %v=MISSING_VALUE", keyvals[i]) // 处理键没有值的情况
		}
	}
	nano := time.Now().UnixNano()
	key := fmt.Sprintf("log:%s:%d", h.serviceName, nano)
	data, err := Json.Marshal(&LogEntry{
		Service:   h.serviceName,
		Level:     levelToString(level),
		Timestamp: nano,
		Message:   b.String(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.client.Do(ctx, "JSON.SET", key, ".", string(data)).Err(); err != nil {
		return fmt.Errorf("redis log sink: %w", err)
	}
	if err := h.client.Expire(ctx, key, logExpire).Err(); err != nil {
		return fmt.Errorf("redis log sink expire: %w", err)
	}
	return nil
}

func newStdoutHandler() log.Logger {
	return log.NewStdLogger(os.Stdout)
}

func newRedisHandler(client redisClient, name string) *RedisHandler {
	return &RedisHandler{
		client:      client,
		serviceName: name,
		timeout:     time.Second,
	}
}

func newRedisClient(addr, passwd string, db int32) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: passwd,
		DB:       int(db),
	})
}

// NewLogger 始终输出到 stdout, PRD 环境额外写入 redis
func NewLogger(env, svcName, addr, passwd string, db int32) *MultiLogger {
	stdout := newStdoutHandler()
	if env != "PRD" || addr == "" {
		return newMultiLogger(stdout)
	}
	rdb := newRedisClient(addr, passwd, db)
	multi := newMultiLogger(stdout, newRedisHandler(rdb, svcName))
	multi.closers = append(multi.closers, rdb.Close)
	return multi
}

// ParseLevel 未知级别按 info 处理
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// levelToString 将日志级别转换为字符串
func levelToString(level log.Level) string {
	switch level {
	case log.LevelDebug:
		return "DEBUG"
	case log.LevelInfo:
		return "INFO"
	case log.LevelWarn:
		return "WARN"
	case log.LevelError:
		return "ERROR"
	case log.LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
