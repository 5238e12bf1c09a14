// Package conf 启动配置
package conf

import "time"

type Bootstrap struct {
	Env     string  `json:"env"`
	Service string  `json:"service"`
	Log     Log     `json:"log"`
	Trace   Trace   `json:"trace"`
	Limit   Limit   `json:"limit"`
	CTrader CTrader `json:"ctrader"`
	Dnse    Dnse    `json:"dnse"`
	Kafka   Kafka   `json:"kafka"`
}

// Log env 为 PRD 时写入 redis
type Log struct {
	Level         string `json:"level"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int32  `json:"redis_db"`
}

// Trace Exporter 可选 stdout, otlpgrpc, otlphttp, zipkin, 为空不导出
type Trace struct {
	Exporter    string  `json:"exporter"`
	Endpoint    string  `json:"endpoint"`
	Insecure    bool    `json:"insecure"`
	SampleRatio float64 `json:"sample_ratio"`
}

type Limit struct {
	WsConnectPeriod string `json:"ws_connect_period"`
	WsConnectTimes  int64  `json:"ws_connect_times"`
	RefreshPeriod   string `json:"refresh_period"`
	RefreshTimes    int64  `json:"refresh_times"`
}

type CTrader struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    int64  `json:"account_id"`
	IsLive       bool   `json:"is_live"`
	// Endpoint 为空时按 IsLive 选择
	Endpoint string  `json:"endpoint"`
	Symbols  []int64 `json:"symbols"`

	RequestTimeoutStr  string `json:"request_timeout"`
	HeartbeatStr       string `json:"heartbeat"`
	CheckIntervalStr   string `json:"check_interval"`
	MaxConnDurationStr string `json:"max_conn_duration"`

	RequestTimeout  time.Duration `json:"-"`
	Heartbeat       time.Duration `json:"-"`
	CheckInterval   time.Duration `json:"-"`
	MaxConnDuration time.Duration `json:"-"`
}

type Dnse struct {
	Enabled   bool     `json:"enabled"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	ApiURL    string   `json:"api_url"`
	BrokerURL string   `json:"broker_url"`
	Symbols   []string `json:"symbols"`
	// SampleInterval 逐笔成交按窗口聚合后再转发, 为空时逐笔转发
	SampleIntervalStr string        `json:"sample_interval"`
	SampleInterval    time.Duration `json:"-"`
}

// Kafka Brokers 为空时不转发
type Kafka struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}
