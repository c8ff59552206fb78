package explorer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	noTransactionsFound = "No transactions found"
	maxRateLimitReached = "Max rate limit reached"
)

var (
	// ErrRateLimited is returned when the explorer rejects the API key rate
	ErrRateLimited = errors.New("explorer rate limit reached")
	// ErrExplorer is returned for any other error reported by the explorer
	ErrExplorer = errors.New("explorer error")
)

// Client queries an etherscan compatible explorer
type Client struct {
	source  syncsource.TransactionSource
	cfg     Config
	http    *fasthttp.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	log     *log.Logger
}

// NewClient builds a client for the explorer of the transaction source
func NewClient(source syncsource.TransactionSource, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		source:  source,
		cfg:     cfg,
		http:    &fasthttp.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:   cache.New(cfg.CacheTTL.Duration, 2*cfg.CacheTTL.Duration), //nolint:mnd
		log:     log.WithFields("module", "explorer", "source", source.Name),
	}
}

// Name of the transaction source
func (c *Client) Name() string {
	return c.source.Name
}

// PageSize used by callers paging Transactions
func (c *Client) PageSize() int {
	return c.cfg.PageSize
}

// TxURL is the explorer page of the transaction
func (c *Client) TxURL(hash common.Hash) string {
	return c.source.TxURL(hash.Hex())
}

// Transactions returns the normal transactions of address between startBlock and endBlock,
// both included, in ascending order. Pages start at 1
func (c *Client) Transactions(
	ctx context.Context, address common.Address, startBlock, endBlock uint64, page, offset int,
) ([]Transaction, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(strings.TrimSuffix(c.source.Etherscan.APIBaseURL, "/") + "/api")
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Add("module", "account")
	args.Add("action", "txlist")
	args.Add("address", address.Hex())
	args.Add("startblock", strconv.FormatUint(startBlock, 10)) //nolint:mnd
	args.Add("endblock", strconv.FormatUint(endBlock, 10))     //nolint:mnd
	args.Add("page", strconv.Itoa(page))
	args.Add("offset", strconv.Itoa(offset))
	args.Add("sort", "asc")
	if c.source.Etherscan.APIKey != "" {
		args.Add("apikey", c.source.Etherscan.APIKey)
	}

	key := req.URI().String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Transaction), nil //nolint:forcetypeassert
	}

	raw, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	txs := make([]Transaction, 0, len(raw))
	for _, r := range raw {
		tx, err := r.toTransaction()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid transaction %s", r.Hash)
		}
		txs = append(txs, tx)
	}
	c.cache.SetDefault(key, txs)
	return txs, nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request) ([]rawTransaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.cfg.RequestTimeout.Duration)
	}
	c.log.Debugf("requesting txlist, startblock %s, page %s",
		req.URI().QueryArgs().Peek("startblock"), req.URI().QueryArgs().Peek("page"))
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", c.source.Name)
	}

	body := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		if resp.StatusCode() == fasthttp.StatusTooManyRequests {
			return nil, ErrRateLimited
		}
		return nil, errors.Errorf("request to %s failed with status %d: %s", c.source.Name, resp.StatusCode(), body)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, errors.Wrapf(err, "invalid response from %s", c.source.Name)
	}

	if r.Status != "1" {
		var result string
		_ = json.Unmarshal(r.Result, &result)
		switch {
		case r.Message == noTransactionsFound:
			return nil, nil
		case strings.Contains(result, maxRateLimitReached):
			return nil, ErrRateLimited
		default:
			return nil, errors.Wrapf(ErrExplorer, "%s: %s %s", c.source.Name, r.Message, result)
		}
	}

	var txs []rawTransaction
	if err := json.Unmarshal(r.Result, &txs); err != nil {
		return nil, errors.Wrapf(err, "invalid result from %s", c.source.Name)
	}
	return txs, nil
}
