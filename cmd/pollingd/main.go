package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/polling-network/polling-daemon/internal/config"
	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	"github.com/polling-network/polling-daemon/internal/infrastructure/chain"
	"github.com/polling-network/polling-daemon/internal/infrastructure/pubsub"
	httpinterface "github.com/polling-network/polling-daemon/internal/interfaces/http"
	"github.com/polling-network/polling-daemon/pkg/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const restoreTimeout = 2 * time.Minute

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to initialize config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	httpAddress := fmt.Sprintf(":%d", config.GetInt(config.HTTPListeningPortKey))
	dbType := config.GetString(config.DBTypeKey)
	profilerEnabled := config.GetBool(config.EnableProfilerKey)
	statsInterval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if profilerEnabled {
		dumpFile := filepath.Join(datadir, config.ProfilerLocation, "metrics.prom")
		stats.EnableMemoryStatistics(ctx, statsInterval, dumpFile)
	}

	// The default registry already carries the go and process collectors and
	// is the one dumped by the profiler.
	metrics := stats.NewMetrics(prometheus.DefaultRegisterer)

	walletProvider, err := chain.NewService(ctx, chain.Config{
		RPCEndpoint: config.GetString(config.RPCEndpointKey),
		Tokens: map[string]string{
			application.MkrTokenSymbol: config.GetString(config.MkrAddressKey),
		},
		ChiefAddress:        config.GetString(config.ChiefAddressKey),
		ProxyFactoryAddress: config.GetString(config.ProxyFactoryAddressKey),
		RequestsPerSecond:   config.GetInt(config.RPCRequestsPerSecondKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to ethereum node")
	}
	defer walletProvider.Close()

	var pubsubSvc ports.PubSub
	if !config.GetBool(config.NoWebhooksKey) {
		pubsubSvc, err = pubsub.NewService(
			config.GetPubSubDatadir(),
			config.GetDuration(config.WebhookRequestTimeoutKey),
			log.New(),
		)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize webhooks")
		}
	}

	appConfig := &application.Config{
		DBType:                 dbType,
		DBConfig:               config.GetDbDir(),
		WalletProvider:         walletProvider,
		PubSub:                 pubsubSvc,
		HardwareAccountsLength: config.GetInt(config.HardwareAccountsLengthKey),
		Metrics:                metrics,
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	defer appConfig.RepoManager().Close()

	accountSvc := appConfig.AccountService()
	broadcaster := appConfig.EventBroadcaster()

	if webhookSvc := appConfig.PubSubService(); webhookSvc != nil {
		webhookSvc.Start(appConfig.Store())
		defer func() {
			webhookSvc.Stop()
			if err := pubsubSvc.Close(); err != nil {
				log.WithError(err).Warn("failed to close webhook store")
			}
		}()
	}

	go func() {
		restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
		defer cancel()
		if err := accountSvc.RestoreTrackedAccounts(restoreCtx); err != nil {
			log.WithError(err).Warn("failed to restore tracked accounts")
		}
	}()

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:        httpAddress,
		AllowedOrigins: config.GetAllowedOrigins(),
		AccountSvc:     accountSvc,
		HardwareSvc:    appConfig.HardwareConnector(),
		PubSubSvc:      appConfig.PubSubService(),
		Broadcaster:    broadcaster,
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize http interface")
	}

	log.Info("starting daemon")
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}
	defer svc.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")
}
