// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

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

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/leveldb"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/txprocessor/ledger"
)

const (
	namespace       = "txprocessor"
	shutdownTimeout = 5 * time.Second
)

var Version = &version.Semantic{
	Major: 0,
	Minor: 1,
	Patch: 0,
}

func main() {
	cfg, err := getConfig()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if cfg.version {
		fmt.Printf("%s@%s\n", ledger.Name, Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(cfg.logLevel)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	if err := run(cfg); err != nil {
		log.Error("txprocessor stopped", "err", err)
		os.Exit(1)
	}
}

func openDB(cfg config, registerer prometheus.Registerer) (database.Database, error) {
	if cfg.dbDir == "" {
		return memdb.New(), nil
	}
	return leveldb.New(cfg.dbDir, nil, logging.NoLog{}, namespace+"_db", registerer)
}

func run(cfg config) error {
	registry := prometheus.NewRegistry()
	db, err := openDB(cfg, registry)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	l, err := ledger.New(db, ledger.Config{
		Ruleset:          cfg.ruleset,
		ReceiptCacheSize: cfg.receiptCacheSize,
		Logger:           log.New("module", "ledger"),
		Registerer:       registry,
		Namespace:        namespace,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	handler, err := ledger.NewHandler(l)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/ext/"+ledger.Name, handler)
	mux.Handle("/ext/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.httpHost, strconv.FormatUint(uint64(cfg.httpPort), 10)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Info("serving txprocessor",
			"address", server.Addr,
			"version", Version,
			"ruleset", cfg.ruleset,
		)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
