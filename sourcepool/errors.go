package sourcepool

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

const rateLimitErrorCode = -32005

var (
	ErrNoHealthyEndpoint = errors.New("no healthy endpoint available")
	ErrNoEndpoints       = errors.New("no endpoints configured")
	ErrWrongChain        = errors.New("endpoint serves a different chain")
)

type result int

const (
	resultOK result = iota
	resultNotFound
	resultRateLimited
	resultError
	resultCanceled
)

func (r result) String() string {
	switch r {
	case resultOK:
		return "ok"
	case resultNotFound:
		return "not_found"
	case resultRateLimited:
		return "rate_limited"
	case resultCanceled:
		return "canceled"
	default:
		return "error"
	}
}

// classify decides how an error returned by a node affects its health.
// parent is the context of the caller, not the per request one.
func classify(parent context.Context, err error) result {
	switch {
	case err == nil:
		return resultOK
	case parent.Err() != nil:
		return resultCanceled
	case errors.Is(err, ethereum.NotFound):
		return resultNotFound
	case IsRateLimited(err):
		return resultRateLimited
	default:
		return resultError
	}
}

// IsRateLimited detects the different ways providers report throttling
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == rateLimitErrorCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "limit exceeded") ||
		strings.Contains(msg, "too many requests")
}
