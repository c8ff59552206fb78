package sourcepool

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/syncsource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Option customizes a Pool
type Option func(*Pool)

// WithDialer replaces DefaultDialer
func WithDialer(d Dialer) Option {
	return func(p *Pool) { p.dial = d }
}

// WithMetrics reports the state of the pool on m
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithClock replaces time.Now for cooldowns
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithExpectedChainID rejects endpoints that report another chain id when dialled
func WithExpectedChainID(chainID uint64) Option {
	return func(p *Pool) { p.chainID = chainID }
}

// Pool routes the requests of a blockchain to the best endpoint available
type Pool struct {
	cfg     Config
	bt      blockchain.Type
	dial    Dialer
	now     func() time.Time
	metrics *Metrics
	chainID uint64
	log     *log.Logger

	mu        sync.Mutex
	endpoints []*endpoint
	active    int
	bestHead  uint64
}

// EndpointsFor lists the endpoints of the selected source, followed by the ones of the
// rest of sources when failover is set. Repeated URLs are skipped
func EndpointsFor(selected syncsource.EvmSyncSource, all []syncsource.EvmSyncSource, failover bool) []Endpoint {
	seen := map[string]struct{}{}
	var res []Endpoint
	add := func(s syncsource.EvmSyncSource) {
		for _, u := range s.RPC.URLs {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			res = append(res, Endpoint{URL: u, Auth: s.RPC.Auth, SourceName: s.Name})
		}
	}
	add(selected)
	if failover {
		for _, s := range all {
			if s.ID != selected.ID {
				add(s)
			}
		}
	}
	return res
}

// New creates a pool. Endpoints are dialled on first use
func New(cfg Config, bt blockchain.Type, endpoints []Endpoint, opts ...Option) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%s: %w", bt, ErrNoEndpoints)
	}
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:  cfg,
		bt:   bt,
		dial: DefaultDialer,
		now:  time.Now,
		log:  log.WithFields("module", "sourcepool", "blockchain", bt.UID()),
	}
	for _, opt := range opts {
		opt(p)
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	for i, e := range endpoints {
		if _, err := url.Parse(e.URL); err != nil {
			return nil, fmt.Errorf("invalid endpoint url %s: %w", e.Label(), err)
		}
		ep := &endpoint{
			Endpoint: e,
			index:    i,
			label:    e.Label(),
			limiter:  rate.NewLimiter(limit, cfg.Burst),
		}
		p.endpoints = append(p.endpoints, ep)
		p.metrics.setUp(bt.UID(), ep.label, true)
	}
	return p, nil
}

// Client returns an EthClient backed by the pool
func (p *Pool) Client() *Client {
	return &Client{pool: p}
}

// Do runs fn against the active endpoint, rotating to the next one when the endpoint
// is throttled or reaches the failure threshold
func (p *Pool) Do(ctx context.Context, op string, fn func(ctx context.Context, c EthClient) error) error {
	return p.do(ctx, op, func(ctx context.Context, _ *endpoint, c EthClient) error {
		return fn(ctx, c)
	})
}

func (p *Pool) do(ctx context.Context, op string, fn func(ctx context.Context, e *endpoint, c EthClient) error) error {
	var lastErr error
	for attempt := 0; attempt < len(p.endpoints); attempt++ {
		e, err := p.pick()
		if err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s: %w: %w", op, err, lastErr)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		client, err := p.connect(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout.Duration)
		start := time.Now()
		err = fn(reqCtx, e, client)
		cancel()
		elapsed := time.Since(start)

		res := classify(ctx, err)
		p.metrics.observeRequest(p.bt.UID(), e.label, res, elapsed)
		switch res {
		case resultOK:
			p.onSuccess(e, elapsed)
			return nil
		case resultNotFound, resultCanceled:
			return err
		case resultRateLimited:
			p.onThrottled(e, op, err)
			lastErr = err
		default:
			if !p.onFailure(e, op, err) {
				return err
			}
			lastErr = err
		}
	}
	return fmt.Errorf("%s: all endpoints failed: %w", op, lastErr)
}

// pick returns the active endpoint while usable, otherwise switches to the best usable one
func (p *Pool) pick() (*endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if active := p.endpoints[p.active]; active.usable(now) && !p.lagging(active) {
		p.halfOpen(active, now)
		return active, nil
	}
	var best *endpoint
	for _, e := range p.endpoints {
		if !e.usable(now) {
			continue
		}
		if best == nil || p.better(e, best) {
			best = e
		}
	}
	if best == nil {
		return nil, ErrNoHealthyEndpoint
	}
	p.halfOpen(best, now)
	if best.index != p.active {
		p.log.Infow("switching endpoint",
			"from", p.endpoints[p.active].label, "to", best.label, "source", best.SourceName)
		p.active = best.index
		p.metrics.failover(p.bt.UID())
	}
	return best, nil
}

// better ranks non lagging endpoints first, then by latency. Unknown latency goes last.
// Ties keep the configured order
func (p *Pool) better(a, b *endpoint) bool {
	if la, lb := p.lagging(a), p.lagging(b); la != lb {
		return lb
	}
	switch {
	case a.latency == b.latency:
		return a.index < b.index
	case a.latency == 0:
		return false
	case b.latency == 0:
		return true
	default:
		return a.latency < b.latency
	}
}

func (p *Pool) lagging(e *endpoint) bool {
	return p.cfg.MaxHeadLag > 0 && e.head > 0 && p.bestHead > e.head+p.cfg.MaxHeadLag
}

// halfOpen gives an endpoint whose cooldown expired a single chance
func (p *Pool) halfOpen(e *endpoint, now time.Time) {
	if e.state == Healthy || now.Before(e.cooldownUntil) {
		return
	}
	p.log.Infow("endpoint cooldown expired, retrying it", "endpoint", e.label, "state", e.state)
	if e.state == Down {
		e.consecutiveFailures = p.cfg.MaxConsecutiveFailures - 1
	}
	e.state = Healthy
	p.metrics.setUp(p.bt.UID(), e.label, true)
}

func (p *Pool) connect(ctx context.Context, e *endpoint) (EthClient, error) {
	p.mu.Lock()
	client := e.client
	p.mu.Unlock()
	if client != nil {
		return client, nil
	}

	c, err := p.dial(ctx, e.Endpoint)
	if err == nil && p.chainID != 0 {
		err = p.checkChainID(ctx, c)
		if err != nil {
			c.Close()
		}
	}
	if err != nil {
		if ctx.Err() == nil {
			p.mu.Lock()
			e.failures++
			e.lastErr = err.Error()
			p.markDown(e)
			p.mu.Unlock()
		}
		return nil, fmt.Errorf("error dialing %s: %w", e.label, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e.client != nil {
		c.Close()
		return e.client, nil
	}
	e.client = c
	return c, nil
}

func (p *Pool) checkChainID(ctx context.Context, c EthClient) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout.Duration)
	defer cancel()
	id, err := c.ChainID(ctx)
	if err != nil {
		return err
	}
	if !id.IsUint64() || id.Uint64() != p.chainID {
		return fmt.Errorf("%w: expected %d, got %s", ErrWrongChain, p.chainID, id)
	}
	return nil
}

func (p *Pool) onSuccess(e *endpoint, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.requests++
	e.consecutiveFailures = 0
	e.downCount = 0
	e.observeLatency(elapsed, p.cfg.LatencyEWMAAlpha)
	if e.state != Healthy {
		e.state = Healthy
		p.metrics.setUp(p.bt.UID(), e.label, true)
	}
}

func (p *Pool) onThrottled(e *endpoint, op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.requests++
	e.lastErr = err.Error()
	e.state = Throttled
	e.cooldownUntil = p.now().Add(p.cfg.ThrottleCooldown.Duration)
	p.metrics.setUp(p.bt.UID(), e.label, false)
	p.log.Warnw("endpoint rate limited", "endpoint", e.label, "op", op, "until", e.cooldownUntil)
}

// onFailure returns true if the endpoint went down
func (p *Pool) onFailure(e *endpoint, op string, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.requests++
	e.failures++
	e.consecutiveFailures++
	e.lastErr = err.Error()
	p.log.Debugw("endpoint request failed",
		"endpoint", e.label, "op", op, "consecutiveFailures", e.consecutiveFailures, "error", err)
	if e.consecutiveFailures < p.cfg.MaxConsecutiveFailures {
		return false
	}
	p.markDown(e)
	return true
}

// markDown must be called holding mu
func (p *Pool) markDown(e *endpoint) {
	e.downCount++
	cooldown := p.cfg.BaseCooldown.Duration
	for i := 1; i < e.downCount && cooldown < p.cfg.MaxCooldown.Duration; i++ {
		cooldown *= 2
	}
	cooldown = min(cooldown, p.cfg.MaxCooldown.Duration)
	e.state = Down
	e.cooldownUntil = p.now().Add(cooldown)
	p.metrics.setUp(p.bt.UID(), e.label, false)
	p.log.Warnw("endpoint down", "endpoint", e.label, "cooldown", cooldown, "lastError", e.lastErr)
}

func (p *Pool) observeHead(e *endpoint, head uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.head = head
	if head > p.bestHead {
		p.bestHead = head
	}
	p.metrics.setHead(p.bt.UID(), e.label, head)
}

// Start probes every usable endpoint each HealthCheckInterval until ctx is done
func (p *Pool) Start(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.HealthCheckInterval.Duration)
	defer ticker.Stop()
	for {
		p.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) probe(ctx context.Context) {
	now := p.now()
	var g errgroup.Group
	for _, e := range p.endpoints {
		e := e
		p.mu.Lock()
		usable := e.usable(now)
		if usable {
			p.halfOpen(e, now)
		}
		p.mu.Unlock()
		if !usable {
			continue
		}
		g.Go(func() error {
			client, err := p.connect(ctx, e)
			if err != nil {
				return nil
			}
			reqCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout.Duration)
			defer cancel()
			start := time.Now()
			head, err := client.BlockNumber(reqCtx)
			elapsed := time.Since(start)
			res := classify(ctx, err)
			p.metrics.observeRequest(p.bt.UID(), e.label, res, elapsed)
			switch res {
			case resultOK:
				p.onSuccess(e, elapsed)
				p.observeHead(e, head)
			case resultRateLimited:
				p.onThrottled(e, "probe", err)
			case resultError:
				p.onFailure(e, "probe", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Health returns a snapshot of every endpoint
func (p *Pool) Health() []EndpointHealth {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]EndpointHealth, 0, len(p.endpoints))
	for _, e := range p.endpoints {
		res = append(res, e.health(e.index == p.active))
	}
	return res
}

// Active returns the endpoint requests are currently sent to
func (p *Pool) Active() Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endpoints[p.active].Endpoint
}

// Close closes every dialled client
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.endpoints {
		if e.client != nil {
			e.client.Close()
			e.client = nil
		}
	}
}
