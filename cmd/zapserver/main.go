package main

import (
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/zap-planner/api"
	"github.com/vultisig/zap-planner/config"
	"github.com/vultisig/zap-planner/internal/chains"
	"github.com/vultisig/zap-planner/internal/tokeninfo"
	"github.com/vultisig/zap-planner/pkg/paraswap"
	"github.com/vultisig/zap-planner/plugin/zap"
	"github.com/vultisig/zap-planner/service"
)

func main() {
	cfg, err := config.GetConfigure()
	if err != nil {
		panic(err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	sdClient, err := statsd.New(fmt.Sprintf("%s:%s", cfg.Datadog.Host, cfg.Datadog.Port))
	if err != nil {
		logger.Fatalf("fail to create statsd client: %v", err)
	}

	registry, err := chains.NewRegistry(cfg.Chains)
	if err != nil {
		logger.Fatalf("invalid chain configuration: %v", err)
	}

	readers := make(map[uint64]tokeninfo.ChainReader, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		rpcClient, err := ethclient.Dial(chain.RpcURL)
		if err != nil {
			logger.Fatalf("fail to connect to %s RPC: %v", name, err)
		}
		readers[chain.ChainID] = rpcClient
	}

	resolver, err := tokeninfo.NewResolver(readers, registry, cfg.Resolver.ProbeTimeout, logger)
	if err != nil {
		logger.Fatalf("fail to create token resolver: %v", err)
	}

	quoter := paraswap.NewClient(paraswap.NewConfig(
		cfg.Paraswap.BaseURL,
		cfg.Paraswap.SlippageBps,
		cfg.Paraswap.Partner,
		cfg.Paraswap.Timeout,
	), logger.WithField("service", "paraswap"))

	planner, err := zap.NewPlanner(registry, func() zap.TokenResolver { return resolver.NewSession() }, quoter, logger, cfg.Planner)
	if err != nil {
		logger.Fatalf("fail to create planner: %v", err)
	}

	zapService, err := service.NewZapService(planner, sdClient, logger)
	if err != nil {
		logger.Fatalf("fail to create zap service: %v", err)
	}

	server := api.NewServer(cfg.Server.Host, cfg.Server.Port, zapService, logger)
	if err := server.StartServer(); err != nil {
		panic(err)
	}
}
