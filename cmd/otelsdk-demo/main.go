package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"

	"github.com/anaconda/anaconda-otel-go/pkg/config"
	"github.com/anaconda/anaconda-otel-go/pkg/logging"
	"github.com/anaconda/anaconda-otel-go/pkg/telemetry"
)

var (
	configPath  = flag.String("config", "", "path to the telemetry config file")
	logLevel    = flag.String("log-level", "info", "log level for the demo itself")
	endpoint    = flag.String("endpoint", "", "override the configured endpoint")
	newEndpoint = flag.String("switch-to", "", "endpoint to switch to after a few seconds, to demonstrate a live connection change")
	interval    = flag.Duration("interval", time.Second, "interval between demo emissions")
)

func main() {
	flag.Parse()

	result, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Could not load config: ", err)
	}
	cfg := result.Config
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	level := logging.ZapLogLevelFromString(*logLevel)
	logger := logging.New(true, *logLevel == "debug", level).
		With(zap.String("component", "otelsdk-demo"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGINT,
	)
	defer stop()

	tel, err := telemetry.New(ctx, cfg, telemetry.WithLogger(logger))
	if err != nil {
		logger.Fatal("Could not initialize telemetry", zap.Error(err))
	}

	if *newEndpoint != "" {
		go func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			ok := tel.ChangeConnection(ctx, telemetry.ChangeConnectionOptions{
				Endpoint: *newEndpoint,
			})
			logger.Info("Connection change requested",
				zap.String("endpoint", *newEndpoint),
				zap.Bool("applied", ok),
			)
		}()
	}

	logger.Info("Emitting demo telemetry, press ctrl+c to stop",
		zap.String("endpoint", cfg.Endpoint),
	)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var iteration int64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}

		iteration++
		spanCtx, span := tel.StartSpan(ctx, "demo.iteration",
			attribute.Int64("iteration", iteration),
		)
		tel.IncrementCounter(spanCtx, "demo.iterations", 1)
		tel.RecordHistogram(spanCtx, "demo.duration", "ms", float64(time.Now().UnixMilli()%100))
		tel.RecordGauge(spanCtx, "demo.iteration.current", float64(iteration))
		tel.EmitLog(spanCtx, otellog.SeverityInfo, "demo iteration complete",
			otellog.Int64("iteration", iteration),
		)
		span.End()
	}

	logger.Info("Graceful shutdown ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("Could not shutdown telemetry", zap.Error(err))
	}

	logger.Debug("Demo exiting")
}
