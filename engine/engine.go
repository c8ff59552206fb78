package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/sourcepool"
	"github.com/horizontalsystems/chainsync/sync"
	"github.com/horizontalsystems/chainsync/walletsync"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownBlockchain = errors.New("blockchain is not synced by the engine")
	ErrDuplicatedChain   = errors.New("blockchain configured more than once")
	ErrNoChains          = errors.New("no blockchains configured")
)

type options struct {
	dialer       sourcepool.Dialer
	metrics      *sourcepool.Metrics
	checkChainID bool
}

// Option customizes an Engine
type Option func(*options)

// WithDialer replaces the dialer of the source pools
func WithDialer(d sourcepool.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithMetrics reports the source pools on m
func WithMetrics(m *sourcepool.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithoutChainIDCheck accepts endpoints whatever chain id they report
func WithoutChainIDCheck() Option {
	return func(o *options) { o.checkChainID = false }
}

// Engine syncs every configured blockchain on its own ChainSyncer
type Engine struct {
	manager SourceManager
	chains  map[blockchain.Type]*ChainSyncer
	order   []blockchain.Type
	log     *log.Logger
}

// New opens the wallet DB of every chain of cfg
func New(cfg Config, manager SourceManager, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Chains) == 0 {
		return nil, ErrNoChains
	}
	o := options{checkChainID: true}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		manager: manager,
		chains:  make(map[blockchain.Type]*ChainSyncer, len(cfg.Chains)),
		log:     log.WithFields("module", "engine"),
	}
	for _, chain := range cfg.Chains {
		if _, ok := e.chains[chain.Blockchain]; ok {
			_ = e.Close()
			return nil, fmt.Errorf("%w: %s", ErrDuplicatedChain, chain.Blockchain)
		}
		if _, err := blockchain.ParseType(chain.Blockchain.UID()); err != nil {
			_ = e.Close()
			return nil, err
		}
		cs, err := newChainSyncer(cfg, chain, manager, o)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.chains[chain.Blockchain] = cs
		e.order = append(e.order, chain.Blockchain)
	}
	return e, nil
}

// Run syncs all the chains until ctx is done. Selection changes of the manager restart the
// sync of the affected chain
func (e *Engine) Run(ctx context.Context) error {
	sub := e.manager.Subscribe()
	defer e.manager.Unsubscribe(sub)

	g, gctx := errgroup.WithContext(ctx)
	for _, bt := range e.order {
		cs := e.chains[bt]
		g.Go(func() error {
			return cs.Run(gctx)
		})
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case bt, ok := <-sub.C:
				if !ok {
					return nil
				}
				if cs, ok := e.chains[bt]; ok {
					cs.sourceChanged()
				}
			}
		}
	})
	e.log.Infof("syncing %d blockchains", len(e.order))
	return g.Wait()
}

// Blockchains synced, in config order
func (e *Engine) Blockchains() []blockchain.Type {
	return append([]blockchain.Type{}, e.order...)
}

// Chain returns the syncer of bt
func (e *Engine) Chain(bt blockchain.Type) (*ChainSyncer, error) {
	cs, ok := e.chains[bt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockchain, bt)
	}
	return cs, nil
}

// Status of the sync of bt
func (e *Engine) Status(bt blockchain.Type) (sync.Status, error) {
	cs, err := e.Chain(bt)
	if err != nil {
		return sync.Status{}, err
	}
	return cs.Status(), nil
}

// Health of the endpoints bt syncs from
func (e *Engine) Health(bt blockchain.Type) ([]sourcepool.EndpointHealth, error) {
	cs, err := e.Chain(bt)
	if err != nil {
		return nil, err
	}
	return cs.Health(), nil
}

// Processor holds the wallet state of bt
func (e *Engine) Processor(bt blockchain.Type) (*walletsync.Processor, error) {
	cs, err := e.Chain(bt)
	if err != nil {
		return nil, err
	}
	return cs.Processor(), nil
}

// Close releases the DBs. Run must have returned
func (e *Engine) Close() error {
	var errs []error
	for _, cs := range e.chains {
		if err := cs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cs.Blockchain(), err))
		}
	}
	return errors.Join(errs...)
}
