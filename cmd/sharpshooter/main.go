package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/internal/config"
	"github.com/mExArb/sharpshooter/internal/metrics"
	"github.com/mExArb/sharpshooter/internal/scanner"
	"github.com/mExArb/sharpshooter/pkg/types"
)

var (
	configPath = flag.String("config", "", "Config file path (default configs/sharpshooter.yaml)")
	once       = flag.Bool("once", false, "Refresh and scan once, print opportunities, exit")
	currency   = flag.String("currency", "", "Override the start currency")
	amount     = flag.Float64("amount", 0, "Override the start amount")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *currency != "" {
		cfg.Start.Currency = strings.ToUpper(*currency)
	}
	if *amount != 0 {
		cfg.Start.Amount = *amount
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logrus.SetLevel(cfg.Level())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	clients, err := scanner.BuildClients(cfg)
	if err != nil {
		logrus.Fatalf("Failed to build exchange clients: %v", err)
	}

	collector := metrics.NewCollector()
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, collector)
		metricsServer.Start()
	}

	if *once {
		runOnce(cfg, clients, collector)
	} else {
		runForever(cfg, clients, collector)
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(ctx); err != nil {
			logrus.Warnf("Failed to stop metrics server: %v", err)
		}
	}
}

func runOnce(cfg *config.Config, clients []types.ExchangeClient, collector *metrics.Collector) {
	s, err := scanner.New(cfg, clients, nil, collector)
	if err != nil {
		logrus.Fatalf("Failed to create scanner: %v", err)
	}
	defer s.Stop()

	opps, err := s.RunOnce(context.Background())
	if err != nil {
		logrus.Fatalf("Scan failed: %v", err)
	}

	if len(opps) == 0 {
		fmt.Printf("no roundtrips from %v %s clear %v%% profit\n",
			cfg.Start.Amount, cfg.Start.Currency, cfg.Scan.Threshold*100)
		return
	}
	for _, opp := range opps {
		fmt.Println(opp)
	}
}

func runForever(cfg *config.Config, clients []types.ExchangeClient, collector *metrics.Collector) {
	sinks, err := scanner.BuildSinks(cfg, os.Stdout)
	if err != nil {
		logrus.Fatalf("Failed to build sinks: %v", err)
	}

	s, err := scanner.New(cfg, clients, sinks, collector)
	if err != nil {
		logrus.Fatalf("Failed to create scanner: %v", err)
	}
	s.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Info("Shutdown signal received")
	s.Stop()
}
