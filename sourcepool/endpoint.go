package sourcepool

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"
)

const redactSegmentLen = 20

// State of an endpoint
type State int

const (
	Healthy State = iota
	Throttled
	Down
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Throttled:
		return "throttled"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name on the RPC
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(data []byte) error {
	for _, st := range []State{Healthy, Throttled, Down} {
		if st.String() == string(data) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown endpoint state %q", data)
}

// EthClient is what the pool needs from a connection to a node
type EthClient interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Endpoint is a single URL of a sync source
type Endpoint struct {
	URL        string
	Auth       string
	SourceName string
}

// Label is the URL without credentials, safe to log and to use as metric label
func (e Endpoint) Label() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return "invalid-url"
	}
	segments := strings.Split(u.Path, "/")
	for i, s := range segments {
		if len(s) >= redactSegmentLen {
			segments[i] = "***"
		}
	}
	return u.Scheme + "://" + u.Host + strings.Join(segments, "/")
}

// EndpointHealth is a snapshot of the state of an endpoint
type EndpointHealth struct {
	URL                 string        `json:"url"`
	Source              string        `json:"source"`
	State               State         `json:"state"`
	Active              bool          `json:"active"`
	Latency             time.Duration `json:"latency"`
	Head                uint64        `json:"head"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	Requests            uint64        `json:"requests"`
	Failures            uint64        `json:"failures"`
	CooldownUntil       time.Time     `json:"cooldownUntil,omitempty"`
	LastError           string        `json:"lastError,omitempty"`
}

type endpoint struct {
	Endpoint
	index   int
	label   string
	client  EthClient
	limiter *rate.Limiter

	state               State
	consecutiveFailures int
	downCount           int
	cooldownUntil       time.Time
	latency             time.Duration
	head                uint64
	requests            uint64
	failures            uint64
	lastErr             string
}

// usable returns true if the endpoint can take requests at now. Endpoints whose cooldown
// expired are usable again (half-open)
func (e *endpoint) usable(now time.Time) bool {
	return e.state == Healthy || !now.Before(e.cooldownUntil)
}

func (e *endpoint) observeLatency(sample time.Duration, alpha float64) {
	if e.latency == 0 {
		e.latency = sample
		return
	}
	e.latency = time.Duration(alpha*float64(sample) + (1-alpha)*float64(e.latency))
}

func (e *endpoint) health(active bool) EndpointHealth {
	h := EndpointHealth{
		URL:                 e.label,
		Source:              e.SourceName,
		State:               e.state,
		Active:              active,
		Latency:             e.latency,
		Head:                e.head,
		ConsecutiveFailures: e.consecutiveFailures,
		Requests:            e.requests,
		Failures:            e.failures,
		LastError:           e.lastErr,
	}
	if e.state != Healthy {
		h.CooldownUntil = e.cooldownUntil
	}
	return h
}
