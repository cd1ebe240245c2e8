// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/luxfi/oracle/api/health"
	apimetrics "github.com/luxfi/oracle/api/metrics"
	"github.com/luxfi/oracle/apiserver"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/listeners"
	"github.com/luxfi/oracle/metricsserver"
	"github.com/luxfi/oracle/oraclelog"
	"github.com/luxfi/oracle/peer"
	"github.com/luxfi/oracle/plugin"
	"github.com/luxfi/oracle/plugins/balanceupdater"
	"github.com/luxfi/oracle/plugins/evmforwarder"
	"github.com/luxfi/oracle/ratelimit"
	"github.com/luxfi/oracle/registry"
	"github.com/luxfi/oracle/scheduler"
	"github.com/luxfi/oracle/source"
	"github.com/luxfi/oracle/task"
)

func runCmd() *cobra.Command {
	var configPath string
	var dev bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start this node's peer RPC, external API, metrics, and (if primary) listeners",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), configPath, dev, logLevel)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the node's YAML or JSON config file")
	cmd.Flags().BoolVar(&dev, "dev", false, "use a human-readable console log encoder")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runNode(ctx context.Context, configPath string, dev bool, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	log, err := oraclelog.New(dev, level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	privKey, err := hex.DecodeString(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("decode privateKey: %w", err)
	}
	pubKey, err := hex.DecodeString(cfg.PublicKey)
	if err != nil {
		return fmt.Errorf("decode publicKey: %w", err)
	}

	promRegistry := apimetrics.NewRegistry()
	taskMetrics, err := task.NewMetrics(cfg.ID, promRegistry)
	if err != nil {
		return fmt.Errorf("register task metrics: %w", err)
	}
	limiter, err := ratelimit.New(cfg.ID, promRegistry)
	if err != nil {
		return fmt.Errorf("register ratelimit metrics: %w", err)
	}
	apiMetrics, err := apimetrics.NewAPIMetrics(cfg.ID, promRegistry)
	if err != nil {
		return fmt.Errorf("register api metrics: %w", err)
	}

	reg := registry.New()
	submitter := newAbstractionChainSubmitter(cfg.AbstractionChain)
	reg.Register(plugin.Erase[[]source.Log, map[string]any, map[string]any, string](evmforwarder.New(pubKey, privKey, submitter)))
	reg.Register(plugin.Erase[[]source.SolanaSignature, map[string]any, map[string]any, string](balanceupdater.New(pubKey, privKey, submitter)))

	peerClient := peer.NewClient(http.DefaultClient, privKey, log)
	coordinator := task.New(cfg, reg, peerClient, pubKey, taskMetrics, log)

	peerServer := peer.NewServer(cfg, reg, privKey, log)
	apiHealth := health.NewAggregator(
		health.NewCheckerFunc("registry", func(context.Context) error {
			if len(reg.IDs()) == 0 {
				return fmt.Errorf("no plugins registered")
			}
			return nil
		}),
	)
	apiSrv := apiserver.New(cfg, coordinator, balanceupdater.ID, apiHealth, apiMetrics, log)
	metricsSrv := metricsserver.New()
	if err := metricsSrv.Register("oracle", apimetrics.NewLabeledGatherer(promRegistry, "node_id", cfg.ID)); err != nil {
		return fmt.Errorf("register metrics gatherer: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: peerServer.Handler()},
		{Addr: fmt.Sprintf(":%d", cfg.APIPort), Handler: apiSrv.Handler()},
		{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: metricsSrv.Handler()},
	}
	for _, srv := range servers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server stopped", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}()
	}

	if cfg.Primary {
		sched := scheduler.New(log)
		for name, lc := range cfg.Listeners {
			rpcSources := cfg.RPC[name]
			if len(rpcSources) == 0 {
				log.Warn("listener has no configured rpc sources, skipping", zap.String("listener_id", name))
				continue
			}
			rs := rpcSources[0]
			switch {
			case rs.Chain == "solana":
				src := newSolanaJSONRPCSource(rs.URL, limiter, name)
				programID, _ := cfg.Plugins[balanceupdater.ID]["programId"].(string)
				sched.Register(listeners.NewSolanaSigListener(name, src, programID, coordinator, balanceupdater.ID, lc, log))
			case rs.Type == "json":
				src := newEVMJSONRPCSource(rs.URL, rs.Chain, limiter, name)
				sched.Register(listeners.NewEVMLogListener(name, src, coordinator, evmforwarder.ID, lc, log))
			default:
				log.Warn("listener has no wired source adapter, skipping", zap.String("listener_id", name), zap.String("rpc_type", rs.Type))
			}
		}
		sched.Start(ctx)
	}

	<-ctx.Done()
	log.Info("shutting down")
	for _, srv := range servers {
		_ = srv.Shutdown(context.Background())
	}
	return nil
}
