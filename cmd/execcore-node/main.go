// execcore-node runs the execution-layer Engine API and public Eth API
// JSON-RPC surfaces described by SPEC_FULL.md §6 as a standalone process,
// the way the teacher's cmd/evm-node runs a standalone EVM node.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ethexec/execlayer/core"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
	"github.com/ethexec/execlayer/eth"
	"github.com/ethexec/execlayer/rpcserver"
)

const clientIdentifier = "execcore-node"

var app = &cli.App{
	Name:  clientIdentifier,
	Usage: "standalone execution-layer Engine API node",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "http.addr", Value: "127.0.0.1"},
		&cli.IntFlag{Name: "http.port", Value: 8545},
		&cli.StringFlag{Name: "authrpc.addr", Value: "127.0.0.1"},
		&cli.IntFlag{Name: "authrpc.port", Value: 8551},
		&cli.StringFlag{Name: "p2p.addr", Value: "0.0.0.0"},
		&cli.IntFlag{Name: "p2p.port", Value: 30303},
		&cli.StringFlag{Name: "discovery.addr", Value: "0.0.0.0"},
		&cli.IntFlag{Name: "discovery.port", Value: 30303},
		&cli.StringFlag{Name: "network", Usage: "path to a genesis.json document", Required: true},
		&cli.StringSliceFlag{Name: "bootnodes"},
		&cli.StringFlag{Name: "datadir", Usage: "durable storage directory; empty runs in-memory"},
		&cli.StringFlag{Name: "jwtsecret", Required: true, Usage: "path to the 32-byte hex authrpc secret"},
		&cli.StringFlag{Name: "log.file", Usage: "rotated log file path; empty logs to stderr"},
		&cli.StringFlag{Name: "metrics.addr", Value: "127.0.0.1"},
		&cli.IntFlag{Name: "metrics.port", Value: 6060},
	},
	Action: runNode,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNode(c *cli.Context) error {
	logger := newLogger(c.String("log.file"))
	defer logger.Sync()

	// p2p/discovery flags are accepted for command-line compatibility
	// with a consensus-client-paired deployment but never dialed: this
	// module speaks only the Engine API and public Eth API (spec.md's
	// Non-goals exclude the devp2p/discovery network stack).
	if len(c.StringSlice("bootnodes")) == 0 {
		logger.Warn("no bootnodes configured; running without peer discovery")
	}

	store, closeStore, err := openStore(c.String("datadir"))
	if err != nil {
		return fmt.Errorf("%s: opening store: %w", clientIdentifier, err)
	}
	defer closeStore()

	genesisPath := c.String("network")
	genesisData, err := os.ReadFile(genesisPath)
	if err != nil {
		return fmt.Errorf("%s: reading genesis file %s: %w", clientIdentifier, genesisPath, err)
	}
	genesis, err := coretypes.DecodeGenesis(genesisData)
	if err != nil {
		return fmt.Errorf("%s: decoding genesis file %s: %w", clientIdentifier, genesisPath, err)
	}
	if _, ok, err := store.GetBlockHeader(0); err != nil {
		return fmt.Errorf("%s: checking for existing genesis block: %w", clientIdentifier, err)
	} else if !ok {
		if err := corestate.SeedGenesis(store, genesis); err != nil {
			return fmt.Errorf("%s: seeding genesis: %w", clientIdentifier, err)
		}
		logger.Info("seeded genesis", zap.Uint64("chainId", genesis.Config.ChainID), zap.Int("allocEntries", len(genesis.Alloc)))
	}

	jwtSecret, err := readJWTSecret(c.String("jwtsecret"))
	if err != nil {
		return fmt.Errorf("%s: reading jwtsecret: %w", clientIdentifier, err)
	}

	backend := newBackend(genesis.Config.ChainID)

	registry := prometheus.NewRegistry()
	if err := core.RegisterBackendMetrics(registry, backend); err != nil {
		return fmt.Errorf("%s: registering backend metrics: %w", clientIdentifier, err)
	}

	ethAPI := eth.NewAPI(store, genesis.Config.ChainID)
	server := rpcserver.NewServer(store, backend, ethAPI, logger)

	authAddr := fmt.Sprintf("%s:%d", c.String("authrpc.addr"), c.Int("authrpc.port"))
	httpAddr := fmt.Sprintf("%s:%d", c.String("http.addr"), c.Int("http.port"))
	metricsAddr := fmt.Sprintf("%s:%d", c.String("metrics.addr"), c.Int("metrics.port"))

	authSrv := &http.Server{Addr: authAddr, Handler: server.AuthRPCHandler(jwtSecret)}
	publicSrv := &http.Server{Addr: httpAddr, Handler: server.PublicRPCHandler()}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}

	errCh := make(chan error, 3)
	go func() { errCh <- serveOrNil(authSrv, "authrpc", logger) }()
	go func() { errCh <- serveOrNil(publicSrv, "http", logger) }()
	go func() { errCh <- serveOrNil(metricsSrv, "metrics", logger) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = authSrv.Shutdown(ctx)
	_ = publicSrv.Shutdown(ctx)
	_ = metricsSrv.Shutdown(ctx)
	return nil
}

func serveOrNil(srv *http.Server, name string, logger *zap.Logger) error {
	logger.Info("listening", zap.String("server", name), zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// openStore builds the in-memory engine when datadir is empty, and the
// durable pebble-backed engine otherwise (spec.md §4.2's "at minimum an
// in-memory engine and a durable engine").
func openStore(datadir string) (corestate.Store, func(), error) {
	if datadir == "" {
		return corestate.NewMemStore(), func() {}, nil
	}
	store, err := corestate.OpenPebbleStore(datadir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func readJWTSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	secret := make([]byte, hex.DecodedLen(len(bytes.TrimSpace(raw))))
	if _, err := hex.Decode(secret, bytes.TrimSpace(raw)); err != nil {
		return nil, fmt.Errorf("decoding hex secret: %w", err)
	}
	return secret, nil
}

func newLogger(logFile string) *zap.Logger {
	if logFile == "" {
		logger, _ := zap.NewProduction()
		return logger
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
	})
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, sink, zap.InfoLevel)
	return zap.New(core)
}
