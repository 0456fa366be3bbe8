package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudx-io/secretlootbid/api"
	"github.com/cloudx-io/secretlootbid/bidding"
	"github.com/cloudx-io/secretlootbid/catalog"
	"github.com/cloudx-io/secretlootbid/chain"
	"github.com/cloudx-io/secretlootbid/config"
	"github.com/cloudx-io/secretlootbid/core"
	"github.com/cloudx-io/secretlootbid/sealing"
	"github.com/cloudx-io/secretlootbid/wallet"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("ERROR: Failed to set up chain backend: %v", err)
	}
	defer closeBackend()

	contract, err := chain.NewContract(cfg.Contract(), backend, 0)
	if err != nil {
		log.Fatalf("ERROR: Failed to bind contract: %v", err)
	}

	sealer, sealingInfo, err := newSealer(cfg)
	if err != nil {
		log.Fatalf("ERROR: Failed to set up sealing: %v", err)
	}

	service, err := bidding.NewService(sealer, contract,
		bidding.WithValidator(core.NewValidator(cfg.MaxBid)),
		bidding.WithConfirmTimeout(cfg.ConfirmTimeout),
		bidding.OnBidPlaced(func(r bidding.BidReceipt) {
			log.Printf("INFO: Bid placed: id=%s box=%d tx=%s", r.BidID, r.BoxID, r.TxHash.Hex())
		}),
	)
	if err != nil {
		log.Fatalf("ERROR: Failed to create bidding service: %v", err)
	}

	handler := api.NewHandler(service, catalog.Featured(), wallet.NewReader(backend, contract), cfg.Public(), sealingInfo)
	server := api.NewServer(api.DefaultServerConfig(cfg.ListenAddr), handler)

	go func() {
		log.Printf("INFO: %s API on %s (chain %d, contract %s, sealing %s)",
			cfg.AppName, cfg.ListenAddr, cfg.ChainID, cfg.Contract().Hex(), sealer.Mode())
		if err := server.ListenAndServe(); err != nil {
			log.Printf("ERROR: HTTP server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	if err := server.Shutdown(); err != nil {
		os.Exit(1)
	}
}

func newBackend(ctx context.Context, cfg *config.Config) (chain.Backend, func(), error) {
	switch cfg.ChainBackend {
	case config.BackendRPC:
		backend, err := chain.DialRPC(ctx, cfg.RPCURL)
		if err != nil {
			return nil, nil, err
		}
		chainID, err := backend.ChainID(ctx)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		if chainID.Uint64() != cfg.ChainID {
			backend.Close()
			return nil, nil, fmt.Errorf("rpc reports chain %s, configured %d", chainID, cfg.ChainID)
		}
		return backend, backend.Close, nil
	default:
		log.Printf("INFO: Using simulated chain backend")
		backend, err := chain.NewSimulatedBackend(cfg.ChainID)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	}
}

func newSealer(cfg *config.Config) (sealing.Sealer, api.SealingInfo, error) {
	info := api.SealingInfo{Mode: cfg.SealingMode}

	var keys *sealing.KeyManager
	if cfg.SealingMode == sealing.ModeHybrid {
		var err error
		keys, err = loadKeys(cfg.SealingKeyFile)
		if err != nil {
			return nil, info, err
		}
		info.PublicKeyPEM, err = keys.PublicKeyPEM()
		if err != nil {
			return nil, info, err
		}
	}

	sealer, err := sealing.New(cfg.SealingMode, keys, sealing.HashAlgorithmSHA256, nil)
	if err != nil {
		return nil, info, err
	}
	return sealer, info, nil
}

func loadKeys(path string) (*sealing.KeyManager, error) {
	if path == "" {
		log.Printf("INFO: No sealing key configured, generating an ephemeral key pair")
		return sealing.NewKeyManager()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sealing key: %w", err)
	}
	return sealing.LoadKeyManager(data)
}
