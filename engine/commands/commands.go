// Package commands provides the xcm-automation CLI.
//
//	cmd := commands.NewCommand(commands.Config{
//	    Logger: lggr,
//	    Deps:   commands.Deps{...}, // inject fakes for testing
//	})
//	cmd.ExecuteContext(ctx)
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/automation"
	"github.com/parachain-tools/xcm-automation/chain"
	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/chain/substrate/provider"
	"github.com/parachain-tools/xcm-automation/engine/config/env"
	"github.com/parachain-tools/xcm-automation/engine/config/network"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

// Config holds the configuration for the commands.
type Config struct {
	// Logger is the logger to use. Optional: when nil one is built from the log section of the
	// runtime configuration.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

var rootLong = longDesc(`
Schedules, confirms and cancels XCM automation tasks on parachains running the automation
pallet. Networks are read from YAML or TOML manifests, secrets and tuning from a config file
and the environment.
`)

// NewCommand creates the root command with all subcommands.
func NewCommand(cfg Config) *cobra.Command {
	// Apply defaults for optional dependencies
	cfg.deps()

	cmd := &cobra.Command{
		Use:           "xcm-automation",
		Short:         "XCM automation task tooling",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newDeriveCmd(cfg),
		newFeeCmd(cfg),
		newScheduleCmd(cfg),
		newRunCmd(cfg),
		newCancelCmd(cfg),
		newTasksCmd(cfg),
	)

	cmd.PersistentFlags().StringSliceP("networks", "n", []string{"networks.yaml"}, "Network manifest files, YAML or TOML")
	cmd.PersistentFlags().StringP("config", "c", "config.yml", "Runtime config file; env vars take precedence")
	cmd.PersistentFlags().String("metrics-addr", "", "Serve prometheus metrics on this address, overriding metrics.addr")

	return cmd
}

// runtime is the loaded configuration shared by a single command invocation.
type runtime struct {
	lggr     logger.Logger
	networks *network.Config
	env      *env.Config
	deps     *Deps

	metricsAddr string
	closers     []io.Closer
	// connected chains, reused when a key is passed more than once
	connected []chain.BlockChain
}

// loadRuntime reads the persistent flags and loads the manifests and the runtime config.
func loadRuntime(cmd *cobra.Command, cfg Config) (*runtime, error) {
	deps := cfg.deps()

	paths, _ := cmd.Flags().GetStringSlice("networks")
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	networks, err := deps.NetworkLoader(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load networks: %w", err)
	}
	envCfg, err := deps.EnvLoader(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lggr := cfg.Logger
	if lggr == nil {
		lvl, err := logger.ParseLevel(envCfg.Log.Level)
		if err != nil {
			return nil, err
		}
		lc := logger.Config{Level: lvl, Encoding: envCfg.Log.Encoding}
		if lggr, err = lc.New(); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if metricsAddr == "" {
		metricsAddr = envCfg.Metrics.Addr
	}

	return &runtime{
		lggr:        lggr,
		networks:    networks,
		env:         envCfg,
		deps:        deps,
		metricsAddr: metricsAddr,
	}, nil
}

// Close releases everything opened through the runtime, in reverse order.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil

	return errors.Join(errs...)
}

func (r *runtime) endpoint(key string) (substrate.ChainEndpoint, error) {
	return r.networks.EndpointByKey(key)
}

// signer picks the configured signer. A mnemonic takes precedence over a secret URI.
func (r *runtime) signer() (provider.SignerGenerator, error) {
	s := r.env.Onchain.Substrate
	switch {
	case s.Mnemonic != "":
		return provider.SignerFromMnemonic(s.Mnemonic, s.DerivationPath), nil
	case s.SignerURI != "":
		return provider.SignerFromURI(s.SignerURI), nil
	}

	return nil, errors.New("no substrate signer configured: set onchain.substrate.mnemonic or onchain.substrate.signer_uri")
}

// connect dials the chain with key, once per invocation.
func (r *runtime) connect(ctx context.Context, key string) (substrate.Chain, error) {
	if ch, err := chain.NewBlockChainsFromSlice(r.connected).SubstrateChain(key); err == nil {
		return ch, nil
	}
	endpoint, err := r.endpoint(key)
	if err != nil {
		return substrate.Chain{}, err
	}
	gen, err := r.signer()
	if err != nil {
		return substrate.Chain{}, err
	}

	pcfg := provider.RPCChainProviderConfig{SignerGen: gen, Logger: r.lggr}
	if r.env.Onchain.Substrate.Finalization {
		pcfg.ClientOpts = append(pcfg.ClientOpts, provider.WithFinalization())
	}

	ch, err := r.deps.ChainConnector(ctx, endpoint, pcfg)
	if err != nil {
		return substrate.Chain{}, fmt.Errorf("failed to connect to %s: %w", key, err)
	}
	if c, ok := ch.Client.(interface{ Close() }); ok {
		r.closers = append(r.closers, closerFunc(func() error {
			c.Close()
			return nil
		}))
	}
	r.connected = append(r.connected, ch)

	return ch, nil
}

// orchestrator wires the store, the publisher and the metrics into an Orchestrator.
func (r *runtime) orchestrator(ctx context.Context) (*automation.Orchestrator, error) {
	store, closer, err := r.deps.StoreOpener(ctx, r.env.Store.DSN, r.lggr)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}
	r.closers = append(r.closers, closer)

	pub, err := r.deps.PublisherOpener(r.env.Notify.NATSURL, r.lggr)
	if err != nil {
		return nil, fmt.Errorf("failed to open publisher: %w", err)
	}
	r.closers = append(r.closers, pub)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := automation.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	if r.metricsAddr != "" {
		r.serveMetrics(reg)
	}

	a := r.env.Automation

	return automation.NewOrchestrator(automation.Config{
		Logger:               r.lggr,
		Store:                store,
		Publisher:            pub,
		Metrics:              metrics,
		GracePeriod:          a.GracePeriod,
		FeeMarginNumerator:   a.FeeMarginNumerator,
		FeeMarginDenominator: a.FeeMarginDenominator,
		VerifyTaskID:         a.VerifyTaskID,
	}), nil
}

// serveMetrics exposes reg on /metrics until the runtime is closed.
func (r *runtime) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: r.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.lggr.Errorw("Metrics server stopped", "addr", r.metricsAddr, "error", err)
		}
	}()
	r.lggr.Infow("Serving metrics", "addr", r.metricsAddr)
	r.closers = append(r.closers, closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(ctx)
	}))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
