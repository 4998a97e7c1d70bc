package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"market-alerts-go/config"
	"market-alerts-go/dispatch"
	"market-alerts-go/engine"
	"market-alerts-go/gateway"
	"market-alerts-go/infrastructure/logger"
	"market-alerts-go/metrics"
	"market-alerts-go/store"
	"market-alerts-go/xivapi"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	watchConfig := flag.Bool("watchConfig", true, "监听配置文件并热更新日志级别")
	flag.Parse()

	// 配置错误是唯一允许退出进程的错误。
	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Addr != "" {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		zlog.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	alerts := store.NewAlerts(db, zlog.Logger, m)
	resolver := xivapi.New(cfg.XIVAPI, zlog.Logger, m)
	dispatcher := dispatch.New(resolver, zlog.Logger, m)
	pipeline := engine.New(alerts, dispatcher,
		cfg.Pipeline.MaxInFlight,
		time.Duration(cfg.Pipeline.DispatchTimeoutSec)*time.Second,
		zlog.Logger, m)

	client := gateway.NewFeedClient(
		cfg.Feed.URL,
		cfg.Feed.Channel,
		time.Duration(cfg.Feed.HandshakeTimeout)*time.Second,
		gateway.LinearBackoff{Base: cfg.Feed.BackoffBase(), Max: cfg.Feed.BackoffMax()},
		pipeline,
		zlog.Logger,
		m)

	if *watchConfig {
		watcher := config.Watcher{Path: *cfgPath}
		go func() {
			err := watcher.Start(ctx, func(updated config.AppConfig) {
				if err := zlog.SetLevel(updated.Log.Level); err != nil {
					zlog.Warn("配置热更新: 日志级别无效", zap.Error(err))
					return
				}
				zlog.Info("配置热更新: 日志级别已调整", zap.String("level", updated.Log.Level))
			}, func(err error) {
				zlog.Warn("配置热更新失败，沿用旧配置", zap.Error(err))
			})
			if err != nil && ctx.Err() == nil {
				zlog.Warn("配置监听退出", zap.Error(err))
			}
		}()
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	zlog.Info("alertd 已启动",
		zap.String("env", cfg.Env),
		zap.String("feed", cfg.Feed.URL),
		zap.String("channel", cfg.Feed.Channel))

	// Run 只在 ctx 取消时返回；所有流错误都在内部重连消化。
	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		zlog.Error("feed 客户端退出", zap.Error(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	zlog.Info("等待在途帧处理完成")
	pipeline.Drain()
	zlog.Info("alertd 已退出")
}
