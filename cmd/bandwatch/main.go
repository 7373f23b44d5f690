package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"bandwatch/configs"
	"bandwatch/internal/notify"
	"bandwatch/internal/refdata"
	"bandwatch/internal/serial"
	"bandwatch/internal/server"
	"bandwatch/internal/strategy"
	"bandwatch/internal/stream"
	"bandwatch/internal/universe"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

func main() {
	logger := newLogger()
	cfg := configs.AppLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := universe.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Fatalf("redis unavailable: %v", err)
	}
	defer cache.Close()

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Kafka.Enabled {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		defer kafkaNotifier.Close()
		notifier = notify.NewMultiNotifier(notifier, kafkaNotifier)
	}

	client := stream.NewClient(stream.Config{
		URL:            cfg.Stream.URL,
		Token:          cfg.Stream.Token,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		ReconnectLimit: cfg.Stream.ReconnectLimit,
	}, logger)
	client.SetOnDown(func(err error) {
		notifier.OnEvent("market data stream is permanently down")
	})

	queue := serial.NewQueue()
	defer queue.Close()

	refClient := refdata.NewClient(cfg.RefData.BaseURL, cfg.RefData.RequestsPerSecond, logger)
	source := universe.NewHTTPInstrumentSource(cfg.Market)

	manager := universe.NewManager(cache, source, refClient, client, queue, notifier, logger, cfg.Universe)

	engine := strategy.NewEngine(manager, notifier, logger, strategy.Config{
		ThresholdUp:   cfg.Limits.ThresholdUp,
		ThresholdDown: cfg.Limits.ThresholdDown,
		AllowUp:       cfg.Limits.AllowUp,
		AllowDown:     cfg.Limits.AllowDown,
		MinVolume:     cfg.Limits.MinVolume,
		Cooldown:      cfg.Limits.Cooldown,
		PriceMin:      cfg.Limits.PriceMin,
		PriceMax:      cfg.Limits.PriceMax,
	})
	manager.RegisterCandleHook(engine.Evaluate)

	if err := client.Connect(); err != nil {
		// The client keeps reconnecting on its own; subscriptions are
		// replayed once it gets through.
		logger.Warnf("initial stream connect failed: %v", err)
	}
	defer client.Disconnect()

	if err := manager.Load(ctx, false); err != nil {
		logger.Fatalf("universe load failed: %v", err)
	}

	engine.Start()
	defer engine.Stop()

	if cfg.API.Enabled {
		api := server.New(manager, engine, client, logger)
		go func() {
			if err := api.Run(cfg.API.Addr); err != nil {
				logger.Errorf("API server stopped: %v", err)
			}
		}()
	}

	logger.Info("bandwatch started")
	<-ctx.Done()
	logger.Info("shutting down")
}
