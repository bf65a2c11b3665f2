package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/chain/substrate/provider"
	"github.com/parachain-tools/xcm-automation/datastore"
	"github.com/parachain-tools/xcm-automation/datastore/postgres"
	"github.com/parachain-tools/xcm-automation/engine/config/env"
	"github.com/parachain-tools/xcm-automation/engine/config/network"
	"github.com/parachain-tools/xcm-automation/notify"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

// NetworkLoaderFunc loads the network manifests.
type NetworkLoaderFunc func(paths []string) (*network.Config, error)

// EnvLoaderFunc loads the runtime configuration from a file and the environment.
type EnvLoaderFunc func(path string) (*env.Config, error)

// ChainConnectorFunc connects to the chain at endpoint.
type ChainConnectorFunc func(ctx context.Context, endpoint substrate.ChainEndpoint, cfg provider.RPCChainProviderConfig) (substrate.Chain, error)

// StoreOpenerFunc opens the task store for dsn. An empty dsn is an in-memory store.
type StoreOpenerFunc func(ctx context.Context, dsn string, lggr logger.Logger) (datastore.TaskStore, io.Closer, error)

// PublisherOpenerFunc opens the transition publisher for url. An empty url disables publishing.
type PublisherOpenerFunc func(url string, lggr logger.Logger) (notify.Publisher, error)

// Deps holds the injectable dependencies of the commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// NetworkLoader loads the network manifests.
	// Default: network.Load
	NetworkLoader NetworkLoaderFunc

	// EnvLoader loads the runtime configuration.
	// Default: env.Load
	EnvLoader EnvLoaderFunc

	// ChainConnector connects to a chain.
	// Default: provider.RPCChainProvider
	ChainConnector ChainConnectorFunc

	// StoreOpener opens the task store.
	// Default: datastore.MemoryTaskStore or postgres.TaskStore
	StoreOpener StoreOpenerFunc

	// PublisherOpener opens the transition publisher.
	// Default: notify.Nop or notify.NATSPublisher
	PublisherOpener PublisherOpenerFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.NetworkLoader == nil {
		d.NetworkLoader = defaultNetworkLoader
	}
	if d.EnvLoader == nil {
		d.EnvLoader = env.Load
	}
	if d.ChainConnector == nil {
		d.ChainConnector = defaultChainConnector
	}
	if d.StoreOpener == nil {
		d.StoreOpener = defaultStoreOpener
	}
	if d.PublisherOpener == nil {
		d.PublisherOpener = defaultPublisherOpener
	}
}

func defaultNetworkLoader(paths []string) (*network.Config, error) {
	return network.Load(paths)
}

// defaultChainConnector dials the chain over websocket RPC.
func defaultChainConnector(ctx context.Context, endpoint substrate.ChainEndpoint, cfg provider.RPCChainProviderConfig) (substrate.Chain, error) {
	bc, err := provider.NewRPCChainProvider(endpoint, cfg).Initialize(ctx)
	if err != nil {
		return substrate.Chain{}, err
	}
	ch, ok := bc.(substrate.Chain)
	if !ok {
		return substrate.Chain{}, fmt.Errorf("provider returned %T for %s", bc, endpoint.Key)
	}

	return ch, nil
}

// defaultStoreOpener keeps records in memory unless a postgres dsn is configured.
func defaultStoreOpener(ctx context.Context, dsn string, lggr logger.Logger) (datastore.TaskStore, io.Closer, error) {
	if dsn == "" {
		return datastore.NewMemoryTaskStore(), nopCloser{}, nil
	}

	store, db, err := postgres.Open(ctx, dsn, lggr)
	if err != nil {
		return nil, nil, err
	}

	return store, db, nil
}

func defaultPublisherOpener(url string, lggr logger.Logger) (notify.Publisher, error) {
	if url == "" {
		return notify.Nop{}, nil
	}

	return notify.NewNATSPublisher(notify.NATSConfig{URL: url, Logger: lggr})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
