package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/filestore"
	gatewayhttp "github.com/ccsds-cfdp/gocfdp/gateway/http"
	"github.com/ccsds-cfdp/gocfdp/metrics"
	"github.com/ccsds-cfdp/gocfdp/mib"
	"github.com/ccsds-cfdp/gocfdp/transport"

	_ "github.com/ccsds-cfdp/gocfdp/transport/loopback"
	_ "github.com/ccsds-cfdp/gocfdp/transport/tcp"
	_ "github.com/ccsds-cfdp/gocfdp/transport/udp"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CFDP entity",
	Long: `Start brings up the configured transport, registers the
transaction engine on it, and serves the HTTP gateway and metrics
endpoint until interrupted.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadDaemonConfig(GetConfigFile())
	if err != nil {
		return err
	}

	mibCfg, err := mib.Load(cfg.MIBFile)
	if err != nil {
		return fmt.Errorf("load mib: %w", err)
	}
	logger := logrus.WithField("entity", mibCfg.EntityID)

	fs, err := filestore.NewLocal(mibCfg.FilestoreRoot)
	if err != nil {
		return fmt.Errorf("open filestore: %w", err)
	}

	tr, err := transport.New(cfg.Transport, cfg.ListenAddr, mibCfg.PeerAddresses())
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tr.Connect(ctx); err != nil {
		return fmt.Errorf("connect transport: %w", err)
	}
	defer tr.Disconnect()

	eng := entity.New(mibCfg, fs, tr)
	collector := metrics.New(mibCfg.EntityID)
	eng.SetObservers(entity.Observers{
		OnTransactionCreated:   collector.ObserveCreated,
		OnTransactionCompleted: collector.ObserveCompleted,
		OnBytesSent:            collector.ObserveBytesSent,
		OnBytesReceived:        collector.ObserveBytesReceived,
		OnNakRetry:             collector.ObserveNakRetry,
	})
	if err := tr.Subscribe(eng.PduListener()); err != nil {
		return fmt.Errorf("subscribe transport: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	engineDone := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(engineDone)
	}()

	gateway := gatewayhttp.New(eng)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: gateway.Handler()}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	serverErr := make(chan error, 2)
	go func() {
		logger.Infof("http gateway listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("http gateway: %w", err)
		}
	}()
	go func() {
		logger.Infof("metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("cfdpd is running, press ctrl-c to stop")
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Errorf("server error: %v", err)
	}

	_ = httpServer.Shutdown(context.Background())
	_ = metricsServer.Shutdown(context.Background())
	cancel()
	eng.Stop()
	<-engineDone
	return nil
}
