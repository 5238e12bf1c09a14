package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"

	"github.com/go-gotop/rtbridge/bridge/wsendpoint"
	"github.com/go-gotop/rtbridge/broker"
	"github.com/go-gotop/rtbridge/broker/kafka"
	"github.com/go-gotop/rtbridge/broker/mqtt"
	"github.com/go-gotop/rtbridge/conf"
	center "github.com/go-gotop/rtbridge/cust/log"
	"github.com/go-gotop/rtbridge/limiter"
	"github.com/go-gotop/rtbridge/limiter/ratelimiter"
	"github.com/go-gotop/rtbridge/requests/httpc"
	"github.com/go-gotop/rtbridge/sampler"
	"github.com/go-gotop/rtbridge/sampler/bytime"
	"github.com/go-gotop/rtbridge/session"
	"github.com/go-gotop/rtbridge/tracing"
	"github.com/go-gotop/rtbridge/wsmanager/manager"
)

var flagconf = flag.String("conf", "configs/config.json", "config path, eg: -conf config.json")

func main() {
	flag.Parse()

	bc, err := conf.Load(*flagconf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := run(bc, *flagconf); err != nil {
		fmt.Fprintf(os.Stderr, "rtbridge: %v\n", err)
		os.Exit(1)
	}
}

func run(bc *conf.Bootstrap, confPath string) error {
	name := bc.Service
	if name == "" {
		name = "rtbridge"
	}
	sink := center.NewLogger(bc.Env, name, bc.Log.RedisAddr, bc.Log.RedisPassword, bc.Log.RedisDB)
	defer sink.Close()
	logger := log.NewFilter(
		log.With(sink, "ts", log.DefaultTimestamp, "caller", log.DefaultCaller, "service", name),
		log.FilterLevel(center.ParseLevel(bc.Log.Level)),
	)
	helper := log.NewHelper(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(ctx, bc.Trace, tracing.WithService(name))
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())

	lim, err := newLimiter(bc.Limit)
	if err != nil {
		return err
	}

	mopts := []manager.ConnConfig{
		manager.WithLogger(logger),
		manager.WithConnLimiter(lim),
		manager.WithMaxConn(4),
		manager.WithCheckInterval(bc.CTrader.CheckInterval),
	}
	if bc.CTrader.MaxConnDuration > 0 {
		mopts = append(mopts, manager.WithMaxConnDuration(bc.CTrader.MaxConnDuration))
	}
	wsm := manager.NewManager(mopts...)
	defer wsm.Shutdown()

	url := bc.CTrader.Endpoint
	if url == "" {
		url = wsendpoint.DemoEndpoint
		if bc.CTrader.IsLive {
			url = wsendpoint.LiveEndpoint
		}
	}
	ep := wsendpoint.New(wsm, url, wsendpoint.WithLogger(logger))

	sess := session.New(ep, session.Credentials{
		ClientID:     bc.CTrader.ClientID,
		ClientSecret: bc.CTrader.ClientSecret,
		AccessToken:  bc.CTrader.AccessToken,
		RefreshToken: bc.CTrader.RefreshToken,
		AccountID:    bc.CTrader.AccountID,
		IsLive:       bc.CTrader.IsLive,
	},
		session.WithLogger(logger),
		session.WithRequestTimeout(bc.CTrader.RequestTimeout),
		session.WithHeartbeat(bc.CTrader.Heartbeat),
		session.WithLimiter(lim),
		session.WithCredentialStore(conf.NewFileStore(confPath)),
		session.WithTracerProvider(tp),
		session.WithStateListener(func(from, to session.State) {
			helper.Infof("ctrader session %s -> %s", from, to)
		}),
	)
	defer sess.Close()

	handler := logHandler(helper)
	if len(bc.Kafka.Brokers) > 0 && bc.Kafka.Topic != "" {
		if err := kafka.CreateTopic(bc.Kafka.Brokers[0], bc.Kafka.Topic, 1, 1); err != nil {
			helper.Warnf("create kafka topic %s: %v", bc.Kafka.Topic, err)
		}
		fw := kafka.NewForwarder(bc.Kafka.Brokers, bc.Kafka.Topic, kafka.WithLogger(logger))
		defer fw.Close()
		handler = fw.Handle
	}

	// 会话就绪前的订阅会在授权完成后自动生效
	for _, id := range bc.CTrader.Symbols {
		if _, err := sess.SubscribeSpots(ctx, id, handler); err != nil {
			return err
		}
	}
	if err := sess.Start(); err != nil {
		return err
	}

	if bc.Dnse.Enabled {
		dh := handler
		if ms := bc.Dnse.SampleInterval.Milliseconds(); ms > 0 {
			dh = sampler.Handler(func() sampler.Sampler { return bytime.NewByTime(ms) }, handler)
		}
		feed, err := startDnse(ctx, bc.Dnse, logger, dh)
		if err != nil {
			helper.Errorf("dnse feed disabled: %v", err)
		} else {
			defer feed.Close()
		}
	}

	helper.Infof("%s started, ctrader endpoint %s", name, url)
	<-ctx.Done()
	helper.Info("shutting down")
	return nil
}

func newLimiter(c conf.Limit) (limiter.Limiter, error) {
	var opts []limiter.Option
	if c.WsConnectPeriod != "" || c.RefreshPeriod != "" {
		opts = append(opts, limiter.WithPeriodLimitArray([]limiter.PeriodLimit{{
			WsConnectPeriod: c.WsConnectPeriod,
			WsConnectTimes:  c.WsConnectTimes,
			RefreshPeriod:   c.RefreshPeriod,
			RefreshTimes:    c.RefreshTimes,
		}}))
	}
	return ratelimiter.NewRateLimiter(opts...)
}

func startDnse(ctx context.Context, c conf.Dnse, logger log.Logger, h broker.Handler) (*mqtt.Feed, error) {
	base := c.ApiURL
	if base == "" {
		base = mqtt.DefaultAPIBaseURL
	}
	client, err := httpc.NewClient(httpc.BaseUrl(base))
	if err != nil {
		return nil, err
	}
	creds, err := mqtt.Authenticate(ctx, client, c.Username, c.Password)
	if err != nil {
		return nil, err
	}

	fopts := []mqtt.Option{mqtt.WithLogger(logger)}
	if c.BrokerURL != "" {
		fopts = append(fopts, mqtt.WithBrokerURL(c.BrokerURL))
	}
	feed := mqtt.NewFeed(fopts...)
	if err := feed.Connect(ctx, creds); err != nil {
		feed.Close()
		return nil, err
	}
	for _, symbol := range c.Symbols {
		if _, err := feed.Registry().Subscribe(ctx, symbol, h); err != nil {
			feed.Close()
			return nil, err
		}
	}
	return feed, nil
}

// logHandler 未配置 kafka 时只打印行情
func logHandler(helper *log.Helper) broker.Handler {
	return func(ctx context.Context, evt broker.Event) error {
		b, err := evt.Bytes()
		if err != nil {
			return err
		}
		helper.Debugf("%s %s %s", evt.Source, evt.Topic, strconv.Quote(string(b)))
		return nil
	}
}
