package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultHeartbeat      = 10 * time.Second
	defaultCheckInterval  = time.Second
)

// Load 读取配置文件, 环境变量覆盖文件中的值
func Load(path string) (*Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	bc := &Bootstrap{}
	var err error
	if err = c.Scan(bc); err != nil {
		return nil, fmt.Errorf("scan config %s: %w", path, err)
	}

	applyEnvOverrides(bc)
	if err := parseDurations(&bc.CTrader); err != nil {
		return nil, err
	}
	if bc.Dnse.SampleInterval, err = parseDuration(bc.Dnse.SampleIntervalStr, 0); err != nil {
		return nil, fmt.Errorf("dnse.sample_interval: %w", err)
	}
	return bc, nil
}

func applyEnvOverrides(bc *Bootstrap) {
	if v := os.Getenv("CTRADER_CLIENT_ID"); v != "" {
		bc.CTrader.ClientID = v
	}
	if v := os.Getenv("CTRADER_CLIENT_SECRET"); v != "" {
		bc.CTrader.ClientSecret = v
	}
	if v := os.Getenv("CTRADER_ACCESS_TOKEN"); v != "" {
		bc.CTrader.AccessToken = v
	}
	if v := os.Getenv("CTRADER_REFRESH_TOKEN"); v != "" {
		bc.CTrader.RefreshToken = v
	}
	if v := os.Getenv("CTRADER_ACCOUNT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			bc.CTrader.AccountID = id
		}
	}
	if v := os.Getenv("CTRADER_IS_LIVE"); v != "" {
		if live, err := strconv.ParseBool(v); err == nil {
			bc.CTrader.IsLive = live
		}
	}

	if v := os.Getenv("DNSE_USERNAME"); v != "" {
		bc.Dnse.Username = v
	}
	if v := os.Getenv("DNSE_PASSWORD"); v != "" {
		bc.Dnse.Password = v
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		bc.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		bc.Log.RedisAddr = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDurations(c *CTrader) error {
	var err error
	if c.RequestTimeout, err = parseDuration(c.RequestTimeoutStr, defaultRequestTimeout); err != nil {
		return fmt.Errorf("ctrader.request_timeout: %w", err)
	}
	if c.Heartbeat, err = parseDuration(c.HeartbeatStr, defaultHeartbeat); err != nil {
		return fmt.Errorf("ctrader.heartbeat: %w", err)
	}
	if c.CheckInterval, err = parseDuration(c.CheckIntervalStr, defaultCheckInterval); err != nil {
		return fmt.Errorf("ctrader.check_interval: %w", err)
	}
	if c.MaxConnDuration, err = parseDuration(c.MaxConnDurationStr, 0); err != nil {
		return fmt.Errorf("ctrader.max_conn_duration: %w", err)
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
