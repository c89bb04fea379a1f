package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/custody/app"
	custodyd "github.com/iov-one/custody/cmd/custodyd/app"
	"github.com/iov-one/custody/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/abci/server"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

func main() {
	cfg := app.DefaultConfig()
	var (
		bind    string
		metrics string
	)
	flag.StringVar(&bind, "bind", "tcp://localhost:26658", "address the ABCI server listens on")
	flag.StringVar(&metrics, "metrics", "", "address to expose prometheus metrics on, disabled when empty")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path, in memory when empty")
	flag.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "tendermint log level filter")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "call stack returned on error")
	flag.StringVar(&cfg.Genesis, "genesis", cfg.Genesis, "genesis file the chain must match, optional")
	flag.Parse()

	if err := run(cfg, bind, metrics); err != nil {
		fmt.Fprintf(os.Stderr, "custodyd: %s\n", err)
		os.Exit(1)
	}
}

func run(cfg app.Config, bind, metricsAddr string) error {
	logger, err := app.NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	svr, err := start(cfg, bind, metricsAddr, logger.With("module", "custody"))
	if err != nil {
		return err
	}

	// Wait for a termination signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return svr.Stop()
}

// start launches the ABCI socket server on bind, and the prometheus
// endpoint when metricsAddr is set.
func start(cfg app.Config, bind, metricsAddr string, logger log.Logger) (cmn.Service, error) {
	var registerer prometheus.Registerer
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		registerer = reg
		go func() {
			h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
			if err := http.ListenAndServe(metricsAddr, h); err != nil {
				logger.Error("metrics server", "err", err)
			}
		}()
	}

	application, err := custodyd.Application(cfg, logger, registerer)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting ABCI app", "bind", bind)
	svr, err := server.NewServer(bind, "socket", application)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create listener")
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return nil, errors.Wrapf(err, "cannot listen on %s", bind)
	}
	return svr, nil
}
