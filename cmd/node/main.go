// Command node starts a CryptoWarriors sequencer node.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/tolelom/cryptowarriors/config"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/indexer"
	"github.com/tolelom/cryptowarriors/internal/logger"
	"github.com/tolelom/cryptowarriors/metrics"
	"github.com/tolelom/cryptowarriors/rpc"
	"github.com/tolelom/cryptowarriors/sequencer"
	"github.com/tolelom/cryptowarriors/storage"
	"github.com/tolelom/cryptowarriors/wallet"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	envPath := flag.String("env", "", "dotenv file with WAR_* overrides (default .env if present)")
	keyPath := flag.String("key", "sequencer.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new sequencer key and exit")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var envFiles []string
	if *envPath != "" {
		envFiles = append(envFiles, *envPath)
	}
	if err := config.ApplyEnv(cfg, envFiles...); err != nil {
		fmt.Fprintf(os.Stderr, "config env: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	// The keystore password comes from the environment; CLI flags leak via ps.
	password := os.Getenv("WAR_PASSWORD")
	if password == "" {
		logger.Warn("WAR_PASSWORD not set, keystore uses an empty password")
	}

	if *genKey {
		w, err := wallet.Generate(cfg.Genesis.ChainID)
		if err != nil {
			logger.Fatal("generate key", "err", err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			logger.Fatal("save key", "err", err)
		}
		fmt.Printf("Generated key. Sequencer address: %s\n", w.Address())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	if err := run(cfg, *keyPath, password); err != nil {
		logger.Fatal("node stopped", "err", err)
	}
}

func run(cfg *config.Config, keyPath, password string) error {
	privKey, err := wallet.LoadKey(keyPath, password)
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "chain"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	chainID := cfg.Genesis.ChainID
	state := storage.NewStateDB(db)
	emitter := events.NewEmitter()
	eng := engine.New(state, chainID, cfg.Game, emitter)
	if err := eng.InitGenesis(cfg.ResolveGenesis(privKey.Public().Hex())); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	bc := core.NewBlockchain(storage.NewBlockStore(db))
	if err := bc.Init(); err != nil {
		return fmt.Errorf("blockchain init: %w", err)
	}

	idx := indexer.New(db, emitter)
	mempool := core.NewMempool(chainID)
	seq := sequencer.New(eng, bc, mempool, privKey, cfg.MaxBlockTxs)

	rpcServer := rpc.NewServer(cfg.RPCAddr(), rpc.NewHandler(eng, bc, mempool, idx, chainID), cfg.RPCAuthToken)
	if cfg.MetricsEnabled {
		m := metrics.New()
		m.Subscribe(emitter)
		m.RegisterGaugeFunc("mempool_size", "Pending transactions in the mempool.", func() float64 {
			return float64(mempool.Size())
		})
		rpcServer.Mount("/metrics", m.Handler())
	}
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	defer func() {
		if err := rpcServer.Stop(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("rpc stop", "err", err)
		}
	}()
	if cfg.RPCAuthToken != "" {
		logger.Info("rpc bearer token authentication enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		seq.Run(ctx, cfg.BlockInterval())
	}()
	logger.Info("node started",
		"chain_id", chainID,
		"sequencer", seq.Address(),
		"height", bc.Height(),
		"state_root", eng.StateRoot(),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	// Stop block production before the deferred RPC stop and DB close.
	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}
