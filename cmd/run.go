package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	chainsync "github.com/horizontalsystems/chainsync"
	"github.com/horizontalsystems/chainsync/blockchain"
	cscommon "github.com/horizontalsystems/chainsync/common"
	"github.com/horizontalsystems/chainsync/config"
	"github.com/horizontalsystems/chainsync/engine"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/rpc"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	dataDirPermissions = os.FileMode(0750)
	metricsReadTimeout = 5 * time.Second
)

func start(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		chainsync.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		log.Infow("Starting application", chainsync.GetVersion().KeyValues()...)
	}

	components := cliCtx.StringSlice(config.FlagComponents)
	if !isNeeded([]string{cscommon.SYNCER, cscommon.RPC}, components) {
		return fmt.Errorf("nothing to run, components: %v", components)
	}
	if err := os.MkdirAll(c.Common.PathRWData, dataDirPermissions); err != nil {
		return err
	}

	storage, err := syncsource.NewSQLStorage(c.SyncSources.DBPath)
	if err != nil {
		return fmt.Errorf("error opening the sync sources DB: %w", err)
	}
	defer storage.Close()
	manager := syncsource.NewManager(c.SyncSources.Keys, c.Common.Testnet, storage)
	if c.SyncSources.CustomSourcesFile != "" {
		if err := manager.LoadCustomFile(c.SyncSources.CustomSourcesFile); err != nil {
			return err
		}
	}

	metricsEnabled := c.Metrics.Enabled && isNeeded([]string{cscommon.METRICS}, components)
	eng, err := createEngine(c.Engine, manager, metricsEnabled)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Errorf("error closing the engine: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})

	if isNeeded([]string{cscommon.RPC}, components) {
		server, err := createRPC(c.RPC, c.Common.Testnet, eng, manager)
		if err != nil {
			cancel()
			return err
		}
		go func() {
			if err := server.Start(); err != nil {
				log.Fatal(err)
			}
		}()
		defer func() {
			if err := server.Stop(); err != nil {
				log.Errorf("error stopping the RPC server: %v", err)
			}
		}()
	}

	if metricsEnabled {
		metricsServer := createMetricsServer(c.Metrics)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err)
			}
		}()
		defer func() {
			if err := metricsServer.Close(); err != nil {
				log.Errorf("error stopping the metrics server: %v", err)
			}
		}()
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- g.Wait()
	}()
	select {
	case err := <-runErr:
		return err
	case <-waitSignal():
	}

	log.Info("terminating application gracefully...")
	cancel()
	select {
	case err := <-runErr:
		return err
	case <-time.After(c.Common.ShutdownTimeout.Duration):
		return fmt.Errorf("components did not stop after %s", c.Common.ShutdownTimeout.Duration)
	}
}

func createEngine(cfg engine.Config, manager *syncsource.Manager, metricsEnabled bool) (*engine.Engine, error) {
	var opts []engine.Option
	if metricsEnabled {
		opts = append(opts, engine.WithMetrics(sourcepool.NewMetrics(prometheus.DefaultRegisterer)))
	}
	return engine.New(cfg, manager, opts...)
}

func createRPC(
	cfg jRPC.Config,
	testnet bool,
	eng *engine.Engine,
	manager *syncsource.Manager,
) (*jRPC.Server, error) {
	logger := log.WithFields("module", cscommon.RPC)
	wallets := make(map[blockchain.Type]rpc.WalletStorer)
	for _, bt := range eng.Blockchains() {
		processor, err := eng.Processor(bt)
		if err != nil {
			return nil, err
		}
		wallets[bt] = processor
	}
	services := []jRPC.Service{
		{
			Name: rpc.CHAINSYNC,
			Service: rpc.NewChainSyncEndpoints(
				logger,
				cfg.WriteTimeout.Duration,
				cfg.ReadTimeout.Duration,
				testnet,
				eng,
				manager,
				wallets,
			),
		},
	}

	return jRPC.NewServer(cfg, services, jRPC.WithLogger(logger.GetSugaredLogger())), nil
}

func createMetricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	log.Infof("serving metrics on %s", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}
}

func waitSignal() <-chan os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	return signals
}

func isNeeded(casesWhereNeeded, actualCases []string) bool {
	for _, actualCase := range actualCases {
		for _, caseWhereNeeded := range casesWhereNeeded {
			if actualCase == caseWhereNeeded {
				return true
			}
		}
	}

	return false
}
